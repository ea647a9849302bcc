package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"serverpe-gateway/config"
	"serverpe-gateway/logger"
)

const queryTimeout = 5 * time.Second

type Connection struct {
	db *sql.DB
}

func NewConnection(cfg config.DatabaseConfig) (*Connection, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	conn := &Connection{db: db}

	if err := conn.ensureConnection(); err != nil {
		db.Close()
		return nil, err
	}

	return conn, nil
}

// LockOrder takes the verification lock for orderID. It reports false when
// another request holds a lock younger than five minutes.
func (c *Connection) LockOrder(ctx context.Context, orderID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := c.db.ExecContext(ctx, `
		INSERT INTO payment_order_locks (order_id, locked_at)
		VALUES (?, NOW())
		ON DUPLICATE KEY UPDATE
		locked_at = IF(locked_at < NOW() - INTERVAL 5 MINUTE, NOW(), locked_at)
	`, orderID)
	if err != nil {
		return false, fmt.Errorf("error acquiring order lock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (c *Connection) ReleaseOrderLock(ctx context.Context, orderID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `DELETE FROM payment_order_locks WHERE order_id = ?`, orderID)
	if err != nil {
		return fmt.Errorf("error releasing order lock: %w", err)
	}

	return nil
}

func (c *Connection) ensureConnection() error {
	for retries := 0; retries < 3; retries++ {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		err := c.db.PingContext(ctx)
		cancel()

		if err == nil {
			return nil
		}

		logger.Log.Warn("Database ping failed", zap.Int("attempt", retries+1), zap.Error(err))
		time.Sleep(time.Second * time.Duration(retries+1))
	}
	return fmt.Errorf("failed to establish database connection after 3 attempts")
}

func (c *Connection) Close() error {
	return c.db.Close()
}

// Ping is used by the health endpoint.
func (c *Connection) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return c.db.PingContext(ctx)
}
