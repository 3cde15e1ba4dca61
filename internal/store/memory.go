package store

import (
	"context"
	"sync"

	"github.com/falobo92/ADC2/internal/record"
)

// Memory is an in-process Store.
type Memory struct {
	mu      sync.Mutex
	records []record.Record
}

// NewMemory returns an empty in-process Store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(ctx context.Context) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]record.Record(nil), m.records...), nil
}

func (m *Memory) Merge(ctx context.Context, records []record.Record) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	m.records, n = mergeInto(m.records, records)
	return n, nil
}

func (m *Memory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

func (m *Memory) Close() error { return nil }
