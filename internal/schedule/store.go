package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// ErrNoSnapshot is returned by a SnapshotStore when the slot is empty.
var ErrNoSnapshot = errors.New("no snapshot")

// SnapshotStore persists one raw document per Kind, overwritten on every save.
type SnapshotStore interface {
	Load(ctx context.Context, kind Kind) ([]byte, error)
	Save(ctx context.Context, kind Kind, raw []byte) error
}

// FileStore keeps each snapshot in <dir>/<slot>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(kind Kind) string {
	return filepath.Join(s.dir, kind.Slot()+".json")
}

// Load reads the snapshot for kind.
func (s *FileStore) Load(_ context.Context, kind Kind) ([]byte, error) {
	data, err := os.ReadFile(s.path(kind))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// Save replaces the snapshot for kind. The document is indented and written
// through a temporary file so readers never see a partial write.
func (s *FileStore) Save(_ context.Context, kind Kind, raw []byte) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return fmt.Errorf("indent snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, kind.Slot()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(pretty.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(kind)); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// RedisStore keeps snapshots under <prefix><slot> keys without expiry.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a RedisStore on client.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Key returns the Redis key holding the snapshot for kind.
func (s *RedisStore) Key(kind Kind) string {
	return s.prefix + kind.Slot()
}

// Load reads the snapshot for kind.
func (s *RedisStore) Load(ctx context.Context, kind Kind) ([]byte, error) {
	data, err := s.client.Get(ctx, s.Key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Save replaces the snapshot for kind.
func (s *RedisStore) Save(ctx context.Context, kind Kind, raw []byte) error {
	if err := s.client.Set(ctx, s.Key(kind), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
