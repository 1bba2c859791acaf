package container

import (
	"context"
	"fmt"
	"net/http"

	"go-exam-scanner/internal/analyzer"
	"go-exam-scanner/internal/collector"
	"go-exam-scanner/internal/config"
	"go-exam-scanner/internal/exporter"
	"go-exam-scanner/internal/factory"
	"go-exam-scanner/internal/logger"
	"go-exam-scanner/internal/normalizer"
	"go-exam-scanner/internal/observer"
	"go-exam-scanner/internal/service"
	"go-exam-scanner/internal/tracker"
	"go-exam-scanner/internal/transport"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config  *config.Config
	pool    *analyzer.WorkerPool
	service service.ScanService
	handler http.Handler
}

// NewContainer builds the dependency graph from cfg.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger.Configure(cfg.LogLevel)

	components := factory.NewComponentFactory()
	archive, err := components.StorageFactory.CreateArchive(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	repo, err := components.RepositoryFactory.CreateStudentRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create student repository: %w", err)
	}

	tr := tracker.New()
	counters := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewTrackerObserver(tr))
	events.Subscribe(counters)
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))

	pool := analyzer.NewWorkerPool(cfg.Workers)
	pool.Start()

	svc := service.NewScanService(service.Dependencies{
		Normalizer:    normalizer.NewDefault(),
		Inspector:     analyzer.NewInspector(analyzer.DefaultOptions()),
		Tracker:       tr,
		Sessions:      collector.NewRegistry(),
		Exporter:      exporter.New(cfg.PDFDefaultDPI),
		Archive:       archive,
		Repository:    repo,
		Verifier:      factory.NewVerifier(cfg),
		Events:        events,
		Counters:      counters,
		Pool:          pool,
		MaxUploadSize: cfg.MaxUploadSize,
	})

	logger.WithFields(logrus.Fields{
		"archive": cfg.ArchiveBackend,
		"backend": cfg.BackendEnabled(),
		"ocr":     cfg.OCREnabled,
		"workers": pool.GetStats().Workers,
	}).Info("Container initialized")

	return &Container{
		config:  cfg,
		pool:    pool,
		service: svc,
		handler: transport.NewHandler(svc, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) Service() service.ScanService {
	return c.service
}

// Close stops the worker pool.
func (c *Container) Close() {
	c.pool.Close()
}
