// worker executes tasks popped from the cronfire work queue. Any number of
// workers may share one queue.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

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
		log.Error().Err(err).Msg("failed to build worker")
		return 1
	}

	if err := app.RunWorker(ctx, c); err != nil {
		log.Error().Err(err).Msg("worker exited with error")
		return 1
	}
	return 0
}
