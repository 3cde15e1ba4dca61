// Package store persists the merged snapshot history.
//
// Every backend keeps at most one record per merge key (see record.Key) and
// preserves insertion order. Merging a record whose key already exists
// replaces it in place only when its content changed.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/falobo92/ADC2/internal/config"
	"github.com/falobo92/ADC2/internal/record"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Store is the Record Store.
type Store interface {
	// Load returns every stored record in insertion order.
	Load(ctx context.Context) ([]record.Record, error)
	// Merge appends records with new keys and replaces changed ones.
	// It returns how many records were appended or replaced.
	Merge(ctx context.Context, records []record.Record) (int, error)
	// Clear removes every record.
	Clear(ctx context.Context) error
	Close() error
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "redis":
		return OpenRedis(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// mergeInto applies merge semantics to existing and returns the result and
// the number of appended or replaced records. existing is not modified.
func mergeInto(existing, incoming []record.Record) ([]record.Record, int) {
	out := make([]record.Record, len(existing), len(existing)+len(incoming))
	copy(out, existing)
	index := make(map[string]int, len(out))
	for i, r := range out {
		index[r.Key()] = i
	}

	changed := 0
	for _, r := range incoming {
		k := r.Key()
		if i, ok := index[k]; ok {
			if !out[i].Equal(r) {
				out[i] = r
				changed++
			}
			continue
		}
		index[k] = len(out)
		out = append(out, r)
		changed++
	}
	return out, changed
}
