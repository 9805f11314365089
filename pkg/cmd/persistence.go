// Package cmd wires shared infrastructure for the binaries: persistence
// and event bus providers selected by URL scheme or name.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/talentdeck/talentdeck/pkg/persistence"
	"github.com/talentdeck/talentdeck/pkg/persistence/file"
	"github.com/talentdeck/talentdeck/pkg/persistence/postgresql"
	"github.com/talentdeck/talentdeck/pkg/persistence/redis"
)

// NewPersistence selects a persistence adapter from the database URL
// scheme. Anything without a recognized scheme is treated as a file root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case strings.HasPrefix(databaseURL, "redis://"), strings.HasPrefix(databaseURL, "rediss://"):
		return redis.NewPersistence(databaseURL)
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://")), nil
	}
}
