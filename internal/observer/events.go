package observer

import (
	"context"
	"time"

	"go-exam-scanner/internal/tracker"
)

// EventType represents the type of scan event
type EventType string

const (
	// PageAdded when a normalized page joins a capture session
	PageAdded EventType = "page_added"
	// PageRemoved when a page is dropped from a session
	PageRemoved EventType = "page_removed"
	// SessionFinished when a session is finalized with its pages
	SessionFinished EventType = "session_finished"
	// ExportCompleted when the student's PDF is archived
	ExportCompleted EventType = "export_completed"
	// ExportFailed when PDF generation or archiving fails
	ExportFailed EventType = "export_failed"
)

// Event is published by the scan service.
type Event struct {
	Type           EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	StudentID      string                 `json:"student_id"`
	PageID         string                 `json:"page_id,omitempty"`
	PageCount      int                    `json:"page_count,omitempty"`
	PDF            *tracker.PDFInfo       `json:"pdf,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Observer reacts to events. A returned error is reported to the
// publisher's caller.
type Observer interface {
	OnEvent(ctx context.Context, event Event) error
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event Event) error
}
