package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileKV stores one JSON file per key under a directory. Writes go through a
// temporary file and a rename so a crash never leaves a torn value behind,
// and readers never see a partial file.
type FileKV struct {
	dir   string
	locks keyLocks
}

// NewFileKV prepares dir and returns a file-backed store.
func NewFileKV(dir string) (*FileKV, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(f.dir, safe+".json")
}

func (f *FileKV) read(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (f *FileKV) write(key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".kv-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, error) {
	return f.read(key)
}

func (f *FileKV) Set(_ context.Context, key string, value []byte) error {
	unlock := f.locks.lock(key)
	defer unlock()
	return f.write(key, value)
}

func (f *FileKV) Update(_ context.Context, key string, fn UpdateFunc) error {
	unlock := f.locks.lock(key)
	defer unlock()
	cur, err := f.read(key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	return f.write(key, next)
}

// Ping checks that the data directory is still reachable.
func (f *FileKV) Ping(context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("store: %s is not a directory", f.dir)
	}
	return nil
}
