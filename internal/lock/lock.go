// Package lock serializes writers of one dataset directory across processes.
package lock

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cardsynth/internal/config"
)

//go:generate mockgen -destination=mock_lock/mock_lock.go -package=mock_lock . DatasetLocker

const keyDatasetLock = "cardsynth:dataset:lock:"

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// ErrLocked is returned when another run holds the dataset.
var ErrLocked = errors.New("dataset_locked")

type DatasetLocker interface {
	TryLock(ctx context.Context, dataDir string) (string, bool, error)
	Release(ctx context.Context, dataDir, token string) error
}

// DatasetLock is a redis SETNX lock keyed by data directory. Without a redis
// address it is disabled and every TryLock succeeds.
type DatasetLock struct {
	enabled bool
	client  *redis.Client
	script  *redis.Script
	ttl     time.Duration
}

func NewDatasetLock(cfg config.Config) (*DatasetLock, error) {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return &DatasetLock{}, nil
	}
	if cfg.Redis.LockTTLSeconds <= 0 {
		return nil, errors.New("dataset lock ttl must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})

	return &DatasetLock{
		enabled: true,
		client:  client,
		script:  redis.NewScript(lockReleaseScript),
		ttl:     time.Duration(cfg.Redis.LockTTLSeconds) * time.Second,
	}, nil
}

func (l *DatasetLock) Enabled() bool {
	return l != nil && l.enabled
}

func (l *DatasetLock) TryLock(ctx context.Context, dataDir string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, Key(dataDir), token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *DatasetLock) Release(ctx context.Context, dataDir, token string) error {
	if !l.Enabled() || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{Key(dataDir)}, token).Err()
}

func (l *DatasetLock) Close() error {
	if !l.Enabled() {
		return nil
	}
	return l.client.Close()
}

// Key derives the redis key for a data directory. Relative paths are made
// absolute first so two spellings of one directory share a lock.
func Key(dataDir string) string {
	dir := strings.TrimSpace(dataDir)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return keyDatasetLock + slug.Make(dir)
}

// Acquire takes the lock or fails with ErrLocked. The returned func releases
// it and is safe to call when locking is disabled.
func Acquire(ctx context.Context, l DatasetLocker, dataDir string) (func(context.Context) error, error) {
	if l == nil {
		return func(context.Context) error { return nil }, nil
	}
	token, ok, err := l.TryLock(ctx, dataDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func(ctx context.Context) error {
		return l.Release(ctx, dataDir, token)
	}, nil
}
