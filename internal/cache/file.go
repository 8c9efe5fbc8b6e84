package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dropDatabas3/garminbridge/internal/util/atomicwrite"
)

// fileClient implementa Client guardando cada key como un archivo JSON bajo
// un directorio base. Pensado para snapshots locales de datos ya
// normalizados: el driver ignora TTL (un snapshot se pisa o se borra, no
// expira solo).
type fileClient struct {
	dir string
}

// NewFile crea un cliente de cache respaldado en disco. Crea el directorio
// base si no existe.
func NewFile(dir string) (*fileClient, error) {
	if dir == "" {
		dir = "mock_data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: no se pudo crear el directorio %s: %w", dir, err)
	}
	return &fileClient{dir: dir}, nil
}

// path mapea una key a un archivo: los ":" separan subdirectorios, así una
// key "user123:health_and_wellness" queda en user123/health_and_wellness.json.
func (c *fileClient) path(key string) string {
	parts := strings.Split(key, ":")
	for i, p := range parts {
		parts[i] = sanitizeSegment(p)
	}
	return filepath.Join(c.dir, filepath.Join(parts...)+".json")
}

// sanitizeSegment evita que una key escape del directorio base.
func sanitizeSegment(s string) string {
	s = strings.ReplaceAll(s, string(os.PathSeparator), "_")
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		return "_"
	}
	return s
}

func (c *fileClient) Get(ctx context.Context, key string) (string, error) {
	b, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(b), nil
}

func (c *fileClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	// escritura atómica para no servir snapshots a medias
	return atomicwrite.AtomicWriteFile(c.path(key), []byte(value), 0o644)
}

func (c *fileClient) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *fileClient) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(c.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (c *fileClient) Ping(ctx context.Context) error {
	_, err := os.Stat(c.dir)
	return err
}

func (c *fileClient) Close() error { return nil }

func (c *fileClient) Stats(ctx context.Context) (Stats, error) {
	var keys int64
	err := filepath.WalkDir(c.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			keys++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return Stats{Driver: "file", Keys: keys}, nil
}
