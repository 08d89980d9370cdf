package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"stagehub/pkg/models"
)

const (
	redisSnapshotKey = "stagehub:snapshot:latest"
	redisRunsKey     = "stagehub:snapshot:runs"
)

// Redis keeps only the latest snapshot, for deployments that run several API replicas.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	loc    *time.Location
}

// OpenRedis parses a redis:// URL and checks the connection.
func OpenRedis(ctx context.Context, url, prefix string, ttl time.Duration, loc *time.Location) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client, prefix, ttl, loc), nil
}

// NewRedis wraps a client. A zero ttl keeps the snapshot until overwritten.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration, loc *time.Location) *Redis {
	if loc == nil {
		loc = time.Local
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, loc: loc}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Save(ctx context.Context, rec Record) error {
	if rec.Snapshot == nil {
		return errors.New("save: nil snapshot")
	}
	doc, err := json.Marshal(rec.Snapshot.Document())
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	runs, err := json.Marshal(rec.Runs)
	if err != nil {
		return fmt.Errorf("marshal source runs: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(redisSnapshotKey), doc, r.ttl)
	pipe.Set(ctx, r.key(redisRunsKey), runs, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

func (r *Redis) Latest(ctx context.Context) (*models.Snapshot, error) {
	data, err := r.client.Get(ctx, r.key(redisSnapshotKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	var doc models.SnapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc.Snapshot(r.loc)
}

// Runs returns the per-source results stored with the latest snapshot.
func (r *Redis) Runs(ctx context.Context) ([]SourceRun, error) {
	data, err := r.client.Get(ctx, r.key(redisRunsKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get source runs: %w", err)
	}
	var runs []SourceRun
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("decode source runs: %w", err)
	}
	return runs, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
