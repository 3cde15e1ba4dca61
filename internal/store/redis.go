package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/falobo92/ADC2/internal/config"
	"github.com/falobo92/ADC2/internal/record"
)

// Redis keeps the whole history as one JSON array under a single key.
type Redis struct {
	client *redis.Client
	key    string
}

// OpenRedis connects to the server in cfg and verifies it with PING.
func OpenRedis(ctx context.Context, cfg config.StorageConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return NewRedis(client, cfg.Key), nil
}

// NewRedis wraps an existing client. The client is closed by Close.
func NewRedis(client *redis.Client, key string) *Redis {
	return &Redis{client: client, key: key}
}

func (s *Redis) Load(ctx context.Context) ([]record.Record, error) {
	return s.load(ctx, s.client)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Redis) load(ctx context.Context, c getter) ([]record.Record, error) {
	raw, err := c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	var records []record.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return records, nil
}

// Merge runs as an optimistic transaction on the key and retries once if a
// concurrent writer changed it.
func (s *Redis) Merge(ctx context.Context, records []record.Record) (int, error) {
	var changed int
	txf := func(tx *redis.Tx) error {
		existing, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		var merged []record.Record
		merged, changed = mergeInto(existing, records)
		if changed == 0 {
			return nil
		}
		payload, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode %s: %w", s.key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, payload, 0)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.client.Watch(ctx, txf, s.key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("merge into %s: %w", s.key, err)
	}
	return changed, nil
}

func (s *Redis) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear %s: %w", s.key, err)
	}
	return nil
}

func (s *Redis) Close() error {
	return s.client.Close()
}
