package factory

import (
	"context"
	"fmt"

	"go-exam-scanner/internal/backend"
	"go-exam-scanner/internal/config"
	"go-exam-scanner/internal/logger"
	"go-exam-scanner/internal/repository"
	"go-exam-scanner/internal/storage"
	"go-exam-scanner/internal/verify"
)

// StorageFactory creates archive implementations
type StorageFactory interface {
	CreateArchive(ctx context.Context, cfg *config.Config) (storage.Archive, error)
}

// storageFactory implements StorageFactory
type storageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{}
}

// CreateArchive builds the archive selected by cfg.ArchiveBackend. The
// Azure container is created if missing.
func (f *storageFactory) CreateArchive(ctx context.Context, cfg *config.Config) (storage.Archive, error) {
	switch cfg.ArchiveBackend {
	case config.ArchiveLocal:
		return storage.NewLocalArchive(cfg.ArchiveDir)
	case config.ArchiveAzure:
		a, err := storage.NewAzureArchive(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer, cfg.AzureEndpoint)
		if err != nil {
			return nil, err
		}
		if err := a.EnsureContainer(ctx); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unsupported archive backend: %s", cfg.ArchiveBackend)
	}
}

// RepositoryFactory creates the student repository
type RepositoryFactory interface {
	CreateStudentRepository(cfg *config.Config) (repository.StudentRepository, error)
}

type repositoryFactory struct{}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory() RepositoryFactory {
	return &repositoryFactory{}
}

// CreateStudentRepository returns a backend repository when BACKEND_URL is
// set and a local one otherwise.
func (f *repositoryFactory) CreateStudentRepository(cfg *config.Config) (repository.StudentRepository, error) {
	if !cfg.BackendEnabled() {
		return repository.NewLocalStudentRepository(), nil
	}
	client, err := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	logger.WithField("backend_url", client.BaseURL()).Info("Using backend student repository")
	return repository.NewRemoteStudentRepository(client), nil
}

// NewVerifier returns nil when OCR is disabled.
func NewVerifier(cfg *config.Config) *verify.Verifier {
	if !cfg.OCREnabled {
		return nil
	}
	return verify.New(verify.TesseractRecognizer{Language: cfg.OCRLanguage})
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory    StorageFactory
	RepositoryFactory RepositoryFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		StorageFactory:    NewStorageFactory(),
		RepositoryFactory: NewRepositoryFactory(),
	}
}
