// Package storage archives exported scan documents on local disk or in an
// Azure blob container.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("archive object not found")

// Location describes a stored object.
type Location struct {
	Name string `json:"name"`
	// Path is a filesystem path or blob URL.
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Archive stores documents by flat name. Implementations map a missing
// object to ErrNotFound.
type Archive interface {
	Save(ctx context.Context, name string, r io.Reader) (Location, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// validateName rejects names that would escape the archive root.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("invalid archive name %q", name)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
