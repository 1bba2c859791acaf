package repository

import (
	"context"
	"errors"

	"go-exam-scanner/internal/backend"
	"go-exam-scanner/internal/tracker"
)

// ErrRepositoryUnavailable indicates no records backend is configured
var ErrRepositoryUnavailable = errors.New("student repository unavailable")

// StudentRepository is the durable home of the roster. The service mirrors
// changes to persisted students through it.
type StudentRepository interface {
	// ListStudents returns the roster as persisted students
	ListStudents(ctx context.Context) ([]tracker.Student, error)

	UpdateStatus(ctx context.Context, studentID string, status tracker.Status, remark string) error
	DeleteStudent(ctx context.Context, studentID string) error
	DeleteAll(ctx context.Context) error

	// UploadScans stores the finalized page images of a student
	UploadScans(ctx context.Context, studentID string, pages [][]byte) error
	DeleteScans(ctx context.Context, studentID string) error

	// Health returns the backend's own status string
	Health(ctx context.Context) (string, error)
	Stats(ctx context.Context) (backend.Stats, error)

	// Remote reports whether changes leave the process
	Remote() bool
}
