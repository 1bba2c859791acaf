package repository

import (
	"context"
	"fmt"

	"go-exam-scanner/internal/backend"
	"go-exam-scanner/internal/tracker"
)

// RemoteStudentRepository implements StudentRepository on the records API
type RemoteStudentRepository struct {
	client *backend.Client
}

// NewRemoteStudentRepository creates a backend-based student repository
func NewRemoteStudentRepository(client *backend.Client) *RemoteStudentRepository {
	return &RemoteStudentRepository{client: client}
}

func (r *RemoteStudentRepository) ListStudents(ctx context.Context) ([]tracker.Student, error) {
	remote, err := r.client.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	students := make([]tracker.Student, 0, len(remote))
	for _, rs := range remote {
		if rs.ID() == "" {
			continue
		}
		students = append(students, rs.Student())
	}
	return students, nil
}

func (r *RemoteStudentRepository) UpdateStatus(ctx context.Context, studentID string, status tracker.Status, remark string) error {
	return r.client.UpdateStatus(ctx, studentID, status, remark)
}

func (r *RemoteStudentRepository) DeleteStudent(ctx context.Context, studentID string) error {
	return r.client.DeleteStudent(ctx, studentID)
}

func (r *RemoteStudentRepository) DeleteAll(ctx context.Context) error {
	return r.client.DeleteAll(ctx)
}

func (r *RemoteStudentRepository) UploadScans(ctx context.Context, studentID string, pages [][]byte) error {
	files := make([]backend.ScanFile, len(pages))
	for i, p := range pages {
		files[i] = backend.ScanFile{Name: fmt.Sprintf("page_%d.jpg", i+1), Data: p}
	}
	_, err := r.client.UploadScans(ctx, studentID, files)
	return err
}

func (r *RemoteStudentRepository) DeleteScans(ctx context.Context, studentID string) error {
	return r.client.DeleteScans(ctx, studentID)
}

func (r *RemoteStudentRepository) Health(ctx context.Context) (string, error) {
	return r.client.Health(ctx)
}

func (r *RemoteStudentRepository) Stats(ctx context.Context) (backend.Stats, error) {
	return r.client.Stats(ctx)
}

func (r *RemoteStudentRepository) Remote() bool { return true }

// LocalStudentRepository is used when no backend is configured. Mutations
// succeed without effect; listing is unavailable.
type LocalStudentRepository struct{}

func NewLocalStudentRepository() *LocalStudentRepository {
	return &LocalStudentRepository{}
}

func (LocalStudentRepository) ListStudents(ctx context.Context) ([]tracker.Student, error) {
	return nil, ErrRepositoryUnavailable
}

func (LocalStudentRepository) UpdateStatus(context.Context, string, tracker.Status, string) error {
	return nil
}

func (LocalStudentRepository) DeleteStudent(context.Context, string) error { return nil }

func (LocalStudentRepository) DeleteAll(context.Context) error { return nil }

func (LocalStudentRepository) UploadScans(context.Context, string, [][]byte) error { return nil }

func (LocalStudentRepository) DeleteScans(context.Context, string) error { return nil }

func (LocalStudentRepository) Health(context.Context) (string, error) {
	return "", ErrRepositoryUnavailable
}

func (LocalStudentRepository) Stats(context.Context) (backend.Stats, error) {
	return backend.Stats{}, ErrRepositoryUnavailable
}

func (LocalStudentRepository) Remote() bool { return false }
