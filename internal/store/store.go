// Package store persists serialized room snapshots, one record per room code.
package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Load when no snapshot exists for a room.
var ErrNotFound = errors.New("room snapshot not found")

// Store is the persistence collaborator for the room registry. Payloads are
// opaque to the store.
type Store interface {
	Load(ctx context.Context, code string) ([]byte, error)
	Save(ctx context.Context, code string, data []byte) error
	Remove(ctx context.Context, code string) error
	// List returns the codes of every stored room.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Drivers understood by Open.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config selects and configures a Store implementation.
type Config struct {
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
}

// Open creates the store named by cfg.Driver.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	case DriverSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
