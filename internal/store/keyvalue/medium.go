package keyvalue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Medium is a local key-value persistence medium holding text values.
type Medium interface {
	// Get reports found=false for a key that was never set.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileMedium stores each key as <dir>/<key>.json.
type FileMedium struct {
	dir string
}

func NewFileMedium(dir string) *FileMedium {
	return &FileMedium{dir: dir}
}

func (m *FileMedium) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(m.dir, key+".json"), nil
}

func (m *FileMedium) Get(_ context.Context, key string) ([]byte, bool, error) {
	path, err := m.path(key)
	if err != nil {
		return nil, false, err
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Set writes through a temp file and rename so a crash never leaves a
// half-written value behind.
func (m *FileMedium) Set(_ context.Context, key string, value []byte) error {
	path, err := m.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(m.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// RedisMedium stores each key as a redis string under prefix+key.
type RedisMedium struct {
	client *goredis.Client
	prefix string
}

func NewRedisMedium(client *goredis.Client, prefix string) *RedisMedium {
	return &RedisMedium{client: client, prefix: prefix}
}

func (m *RedisMedium) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := m.client.Get(ctx, m.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (m *RedisMedium) Set(ctx context.Context, key string, value []byte) error {
	return m.client.Set(ctx, m.prefix+key, value, 0).Err()
}

// PingRedis checks the server answers within two seconds.
func PingRedis(ctx context.Context, client *goredis.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(pingCtx).Err()
}
