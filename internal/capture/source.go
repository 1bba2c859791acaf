// Package capture acquires still frames from files, uploads and network
// cameras and reads the metadata needed to put them upright.
package capture

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Frame is one encoded still image as delivered by a source.
type Frame struct {
	Data        []byte
	ContentType string
	Meta        Metadata
	Source      string
	AcquiredAt  time.Time
}

// Source delivers frames. Acquire honors ctx cancellation; a cancelled
// acquisition returns ctx.Err() and no frame.
type Source interface {
	Acquire(ctx context.Context) (Frame, error)
}

// BytesSource wraps an already received payload, e.g. a multipart upload.
type BytesSource struct {
	Data    []byte
	Name    string
	MaxSize int64
}

func (b BytesSource) Acquire(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	return newFrame(b.Data, b.Name, b.MaxSize)
}

// FileSource reads a frame from disk.
type FileSource struct {
	Path    string
	MaxSize int64
}

func (f FileSource) Acquire(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		return Frame{}, fmt.Errorf("stat %s: %w", f.Path, err)
	}
	if f.MaxSize > 0 && info.Size() > f.MaxSize {
		return Frame{}, &ValidationError{Reason: fmt.Sprintf("file is %d bytes, limit is %d", info.Size(), f.MaxSize)}
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Frame{}, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return newFrame(data, f.Path, f.MaxSize)
}

func newFrame(data []byte, name string, maxSize int64) (Frame, error) {
	contentType, err := Validate(data, maxSize)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Data:        data,
		ContentType: contentType,
		Meta:        ReadMetadata(data),
		Source:      name,
		AcquiredAt:  time.Now(),
	}, nil
}
