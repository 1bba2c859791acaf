package observer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-exam-scanner/internal/tracker"

	"github.com/sirupsen/logrus"
)

// LoggingObserver logs scan events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) *LoggingObserver {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles scan events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event Event) error {
	fields := logrus.Fields{
		"event_type": event.Type,
		"student_id": event.StudentID,
	}
	if event.PageID != "" {
		fields["page_id"] = event.PageID
	}
	if event.PageCount > 0 {
		fields["page_count"] = event.PageCount
	}
	if event.ProcessingTime > 0 {
		fields["processing_time_ms"] = event.ProcessingTime.Milliseconds()
	}
	if event.PDF != nil {
		fields["pdf_path"] = event.PDF.Path
		fields["pdf_size"] = event.PDF.Size
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.Type {
	case PageAdded:
		entry.Debug("Page added to session")
	case PageRemoved:
		entry.Debug("Page removed from session")
	case SessionFinished:
		entry.Info("Capture session finished")
	case ExportCompleted:
		entry.Info("Scan document exported")
	case ExportFailed:
		entry.Error("Scan document export failed")
	default:
		entry.Info("Scan event occurred")
	}
	return nil
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Metrics is a point-in-time copy of the counters.
type Metrics struct {
	PagesAdded        int64         `json:"pages_added"`
	PagesRemoved      int64         `json:"pages_removed"`
	SessionsFinished  int64         `json:"sessions_finished"`
	ExportsCompleted  int64         `json:"exports_completed"`
	ExportsFailed     int64         `json:"exports_failed"`
	TotalExportTime   time.Duration `json:"total_export_time"`
	AverageExportTime time.Duration `json:"avg_export_time"`
}

// MetricsObserver collects metrics from scan events
type MetricsObserver struct {
	mu sync.RWMutex
	m  Metrics
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles scan events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.Type {
	case PageAdded:
		o.m.PagesAdded++
	case PageRemoved:
		o.m.PagesRemoved++
	case SessionFinished:
		o.m.SessionsFinished++
	case ExportCompleted:
		o.m.ExportsCompleted++
		o.m.TotalExportTime += event.ProcessingTime
	case ExportFailed:
		o.m.ExportsFailed++
	}
	return nil
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m := o.m
	if m.ExportsCompleted > 0 {
		m.AverageExportTime = m.TotalExportTime / time.Duration(m.ExportsCompleted)
	}
	return m
}

// TrackerObserver feeds session and export outcomes into the status
// tracker.
type TrackerObserver struct {
	tracker *tracker.Tracker
}

func NewTrackerObserver(t *tracker.Tracker) *TrackerObserver {
	return &TrackerObserver{tracker: t}
}

func (o *TrackerObserver) OnEvent(ctx context.Context, event Event) error {
	var ev tracker.Event
	switch event.Type {
	case SessionFinished:
		ev = tracker.PagesCaptured{StudentID: event.StudentID, Count: event.PageCount, At: event.Timestamp}
	case ExportCompleted:
		if event.PDF == nil {
			return fmt.Errorf("export event for %s carries no document", event.StudentID)
		}
		ev = tracker.PDFExported{StudentID: event.StudentID, PDF: *event.PDF}
	default:
		return nil
	}
	_, err := o.tracker.Apply(ev)
	return err
}

func (o *TrackerObserver) GetObserverName() string {
	return "tracker_observer"
}
