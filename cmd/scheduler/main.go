// scheduler moves due cron jobs from the job store onto the work queue.
// Run exactly one instance per job store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/RezaEskandarii/cronfire/app"
	"github.com/RezaEskandarii/cronfire/internal/logging"
	"github.com/RezaEskandarii/cronfire/types/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(nil)
	if err != nil {
		boot := logging.New("error", "text", nil)
		boot.Error().Err(err).Msg("invalid configuration")
		return 2
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, nil)

	c, err := app.NewContainer(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to build scheduler")
		return 1
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close job store")
		}
		log.Info().Msg("database connections closed")
	}()

	if err := app.RunScheduler(ctx, c); err != nil {
		log.Error().Err(err).Msg("scheduler exited with error")
		return 1
	}
	return 0
}
