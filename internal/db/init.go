package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/RezaEskandarii/cronfire/internal/constants"
	"github.com/RezaEskandarii/cronfire/internal/lock"
	"github.com/RezaEskandarii/cronfire/types/config"
	"github.com/rs/zerolog"
)

//go:embed migrations
var migrations embed.FS

// Init creates the jobs schema if it does not exist. Scripts run in file name
// order while holding the migration lock so concurrently starting processes do
// not race on DDL. Every script is idempotent.
func Init(ctx context.Context, db *sql.DB, driver config.StorageDriver, distributedLock lock.DistributedLockManager, log zerolog.Logger) error {
	scripts, err := readSQLScripts(driver)
	if err != nil {
		return err
	}

	migrationLock := constants.MigrationLock
	if err := distributedLock.Acquire(ctx, migrationLock); err != nil {
		return err
	}
	defer func() {
		if err := distributedLock.Release(context.WithoutCancel(ctx), migrationLock); err != nil {
			log.Warn().Err(err).Msg("release migration lock")
		}
	}()

	for _, script := range scripts {
		log.Debug().Str("script", script.name).Msg("applying schema script")
		if _, err := db.ExecContext(ctx, script.body); err != nil {
			return fmt.Errorf("apply %s: %w", script.name, err)
		}
	}
	log.Info().Str("driver", driver.String()).Int("scripts", len(scripts)).Msg("schema ready")
	return nil
}

type sqlScript struct {
	name string
	body string
}

func readSQLScripts(driver config.StorageDriver) ([]sqlScript, error) {
	dir := path.Join("migrations", driver.String())
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("no schema scripts for driver %s: %w", driver, err)
	}

	var scripts []sqlScript
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		content, err := fs.ReadFile(migrations, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, sqlScript{name: entry.Name(), body: string(content)})
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].name < scripts[j].name })
	return scripts, nil
}
