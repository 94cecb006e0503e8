package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/user-management/db"
	"github.com/frahmantamala/user-management/internal"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files for the configured database driver",
	}
	migrateRollback bool
	migrateDir      string
)

// gooseDialects maps a config driver to the goose dialect and database/sql driver name.
var gooseDialects = map[string]struct{ dialect, driver string }{
	internal.DriverMySQL:    {"mysql", "mysql"},
	internal.DriverPostgres: {"postgres", "pgx"},
	internal.DriverSQLite:   {"sqlite3", "sqlite3"},
}

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "", "sql migrations directory on disk; the embedded migrations are used when empty")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	d, ok := gooseDialects[cfg.Database.Driver]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	// mysql and sqlite3 are registered by the gorm drivers linked into this binary, pgx by the
	// stdlib import above.
	sqlDB, err := goose.OpenDBWithDriver(d.driver, cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer sqlDB.Close()

	return migrate(ctx, sqlDB, cfg.Database.Driver, d.dialect)
}

func migrate(ctx context.Context, sqlDB *sql.DB, driver, dialect string) error {
	if migrateDir != "" {
		goose.SetBaseFS(os.DirFS(migrateDir))
	} else {
		migrations, err := db.Migrations(driver)
		if err != nil {
			return err
		}
		goose.SetBaseFS(migrations)
	}
	goose.SetTableName("schema_migrations")

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose: %w", err)
	}

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, sqlDB, "."); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
