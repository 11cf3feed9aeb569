package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/waldirborbajr/versiongate/config"
	"github.com/waldirborbajr/versiongate/logger"
	_ "modernc.org/sqlite"
)

// History stores the outcome of every settled update check
type History struct {
	db     *sql.DB
	driver string
}

// OpenHistory connects to the history database named by cfg and creates the
// schema when missing. Supported drivers are "sqlite" and "mysql".
func OpenHistory(cfg config.Config) (*History, error) {
	return Open(cfg.HistoryDriver, cfg.HistoryDSN)
}

// Open connects using an explicit driver and DSN
func Open(driver, dsn string) (*History, error) {
	log := logger.GetLogger()

	switch driver {
	case "sqlite", "mysql":
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening %s history database: %w", driver, err)
	}

	if driver == "sqlite" {
		// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(30 * time.Minute) // Rotate connections
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = conn.PingContext(ctx); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Error closing history database connection")
		}
		return nil, fmt.Errorf("%s history database is offline or inaccessible: %w", driver, err)
	}

	h := &History{db: conn, driver: driver}
	if err := h.initSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Debug().Str("driver", driver).Msg("History database connected successfully")
	return h, nil
}

func (h *History) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS check_history (
		id              VARCHAR(36) PRIMARY KEY,
		checked_at      VARCHAR(40) NOT NULL,
		platform        VARCHAR(16) NOT NULL,
		bundle_id       VARCHAR(255) NOT NULL,
		current_version VARCHAR(64) NOT NULL,
		latest_version  VARCHAR(64) NOT NULL,
		release_date    VARCHAR(40) NOT NULL,
		needs_update    INTEGER NOT NULL,
		in_grace_period INTEGER NOT NULL,
		attempts        INTEGER NOT NULL,
		status          VARCHAR(16) NOT NULL,
		duration_ms     BIGINT NOT NULL
	)`
	if _, err := h.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating check_history table: %w", err)
	}
	return nil
}

// Ping verifies the connection is still usable
func (h *History) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

// Close releases the connection pool
func (h *History) Close() error {
	return h.db.Close()
}
