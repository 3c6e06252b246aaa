package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/recipebox/config"
)

// ErrUnavailable is returned when no connection could be acquired.
var ErrUnavailable = errors.New("database unavailable")

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn is a Querier that can start a transaction.
type Conn interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Connect opens the pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"port":     cfg.Port,
		"database": cfg.Name,
	}).Info("connected to database")
	return db, nil
}

// ConnectAndMigrate opens the pool and applies every pending migration.
func ConnectAndMigrate(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := MigrateUp(db, cfg.Name); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ShutdownDatabase(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// Tx runs fn inside a transaction on conn. The transaction is rolled back
// when fn returns an error or panics and committed otherwise.
func Tx(ctx context.Context, conn Conn, fn func(tx *sql.Tx) error) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rollBackErr := tx.Rollback(); rollBackErr != nil {
				logrus.WithError(rollBackErr).Error("failed to rollback after panic")
			}
			panic(p)
		}
		if err != nil {
			if rollBackErr := tx.Rollback(); rollBackErr != nil {
				logrus.WithError(rollBackErr).Error("failed to rollback")
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(tx)
}

type connKey struct{}

// WithConn stores a request-scoped connection in ctx.
func WithConn(ctx context.Context, conn Conn) context.Context {
	return context.WithValue(ctx, connKey{}, conn)
}

// ConnFromContext returns the connection acquired for the current request.
func ConnFromContext(ctx context.Context) (Conn, error) {
	conn, ok := ctx.Value(connKey{}).(Conn)
	if !ok || conn == nil {
		return nil, ErrUnavailable
	}
	return conn, nil
}
