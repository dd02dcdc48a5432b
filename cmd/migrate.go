package cmd

import (
	"fmt"

	"github.com/solon0/solon/db"
	"github.com/solon0/solon/internal/config"
	"github.com/solon0/solon/internal/log"
)

// runMigrate applies all pending database migrations.
func runMigrate(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return err
	}
	fmt.Println("Migrations applied.")
	return nil
}
