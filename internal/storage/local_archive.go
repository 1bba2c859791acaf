package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalArchive keeps documents in a directory.
type LocalArchive struct {
	dir string
}

// NewLocalArchive creates dir if needed.
func NewLocalArchive(dir string) (*LocalArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &LocalArchive{dir: dir}, nil
}

func (a *LocalArchive) Dir() string { return a.dir }

// Save writes through a temporary file so readers never see a partial
// document.
func (a *LocalArchive) Save(ctx context.Context, name string, r io.Reader) (Location, error) {
	if err := validateName(name); err != nil {
		return Location{}, err
	}
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}
	tmp, err := os.CreateTemp(a.dir, ".upload-*")
	if err != nil {
		return Location{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Location{}, fmt.Errorf("write %s: %w", name, err)
	}

	path := filepath.Join(a.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Location{}, fmt.Errorf("store %s: %w", name, err)
	}
	return Location{Name: name, Path: path, Size: n}, nil
}

func (a *LocalArchive) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(a.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f, err
}

func (a *LocalArchive) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(a.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}
