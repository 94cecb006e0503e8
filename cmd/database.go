package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/user-management/internal"
)

// sqlxDriverNames maps a config driver to the database/sql driver name gorm registers, which
// is what sqlx uses to pick its bind style.
var sqlxDriverNames = map[string]string{
	internal.DriverMySQL:    "mysql",
	internal.DriverPostgres: "pgx",
	internal.DriverSQLite:   "sqlite3",
}

type database struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

func (d *database) Close() error {
	return d.SQLX.Close()
}

// initDB opens one pool and exposes it through both gorm and sqlx.
func initDB(cfg internal.DatabaseConfig) (*database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	level := gormLogger.Warn
	if cfg.LogSQL {
		level = gormLogger.Info
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormLogger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &database{
		Gorm: gdb,
		SQLX: sqlx.NewDb(sqlDB, sqlxDriverNames[cfg.Driver]),
	}, nil
}

func dialectorFor(cfg internal.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case internal.DriverMySQL:
		return mysql.Open(cfg.GetDSN()), nil
	case internal.DriverPostgres:
		return postgres.New(postgres.Config{DSN: cfg.GetDSN(), DriverName: "pgx"}), nil
	case internal.DriverSQLite:
		return sqlite.Open(cfg.GetDSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
