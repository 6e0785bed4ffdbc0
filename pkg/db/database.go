package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Options struct {
	// DSN selects postgres. Empty means SQLite at SQLitePath.
	DSN        string
	SQLitePath string
}

func configurePool(sqlDB *sql.DB, maxOpen int) {
	const (
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(min(maxIdleConns, maxOpen))
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func Open(ctx context.Context, opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var (
		dialector gorm.Dialector
		maxOpen   = 20
	)
	switch {
	case opts.DSN != "":
		cfg.PrepareStmt = true
		dialector = postgres.Open(opts.DSN)
	case opts.SQLitePath != "":
		// sqlite serializes writers; one connection avoids "database is locked"
		maxOpen = 1
		dialector = sqlite.Open(opts.SQLitePath + "?_pragma=foreign_keys(1)")
	default:
		return nil, fmt.Errorf("database: neither DATABASE_URL nor SQLITE_PATH is set")
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	configurePool(sqlDB, maxOpen)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
