package kv

import (
	"context"
	"fmt"
)

// Options selects and configures a Store implementation.
type Options struct {
	Driver      string // "sqlite", "memory", "postgres", "redis"
	SQLitePath  string
	DatabaseURL string
	RedisURL    string
}

// Open builds the Store named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "":
		return NewSQLite(ctx, opts.SQLitePath)
	case "postgres":
		return NewPostgres(ctx, opts.DatabaseURL)
	case "redis":
		return NewRedis(ctx, opts.RedisURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
