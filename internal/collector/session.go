// Package collector keeps the ordered pages captured for a student until
// they are handed to the exporter.
package collector

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-exam-scanner/internal/analyzer"
	"go-exam-scanner/internal/normalizer"
)

var (
	ErrEmptySession     = errors.New("session has no pages")
	ErrSessionFinalized = errors.New("session already finalized")
	ErrPageNotFound     = errors.New("page not found")
	ErrNoSession        = errors.New("no capture session for student")
)

// PageMeta is supplied by the caller alongside a normalized image. DPIX
// and DPIY come from the capture device; 0 means unknown.
type PageMeta struct {
	CapturedAt time.Time
	Source     string
	Quality    *analyzer.PageQuality
	DPIX, DPIY float64
}

// Page is one collected page. Sequence is 1-based and always contiguous.
type Page struct {
	ID         string                     `json:"id"`
	Sequence   int                        `json:"sequence"`
	StudentID  string                     `json:"student_id"`
	CapturedAt time.Time                  `json:"captured_at"`
	Source     string                     `json:"source,omitempty"`
	Image      normalizer.NormalizedImage `json:"image"`
	Quality    *analyzer.PageQuality      `json:"quality,omitempty"`
	DPIX       float64                    `json:"dpi_x,omitempty"`
	DPIY       float64                    `json:"dpi_y,omitempty"`

	digest [sha256.Size]byte
}

// Session is the ordered page list of one student. It is safe for
// concurrent use.
type Session struct {
	mu        sync.Mutex
	studentID string
	startedAt time.Time
	pages     []Page
	finalized bool
}

func NewSession(studentID string) *Session {
	return &Session{studentID: studentID, startedAt: time.Now()}
}

func (s *Session) StudentID() string { return s.studentID }

func (s *Session) StartedAt() time.Time { return s.startedAt }

// Append adds img as the last page. A byte-identical image that is already
// collected is not added again; the existing page is returned with false.
func (s *Session) Append(img normalizer.NormalizedImage, meta PageMeta) (Page, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return Page{}, false, ErrSessionFinalized
	}
	digest := sha256.Sum256(img.Data)
	for _, p := range s.pages {
		if p.digest == digest {
			return p, false, nil
		}
	}
	if meta.CapturedAt.IsZero() {
		meta.CapturedAt = time.Now()
	}
	p := Page{
		ID:         uuid.NewString(),
		Sequence:   len(s.pages) + 1,
		StudentID:  s.studentID,
		CapturedAt: meta.CapturedAt,
		Source:     meta.Source,
		Image:      img.Compact(),
		Quality:    meta.Quality,
		DPIX:       meta.DPIX,
		DPIY:       meta.DPIY,
		digest:     digest,
	}
	s.pages = append(s.pages, p)
	return p, true, nil
}

// Remove drops a page and renumbers the rest.
func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return ErrSessionFinalized
	}
	for i, p := range s.pages {
		if p.ID != id {
			continue
		}
		s.pages = append(s.pages[:i], s.pages[i+1:]...)
		for j := i; j < len(s.pages); j++ {
			s.pages[j].Sequence = j + 1
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPageNotFound, id)
}

// Pages returns a copy of the pages in order.
func (s *Session) Pages() []Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Page, len(s.pages))
	copy(out, s.pages)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

func (s *Session) Finalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// Finalize closes the session and returns its pages. Empty sessions cannot
// be finalized.
func (s *Session) Finalize() ([]Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return nil, ErrSessionFinalized
	}
	if len(s.pages) == 0 {
		return nil, ErrEmptySession
	}
	s.finalized = true
	out := make([]Page, len(s.pages))
	copy(out, s.pages)
	return out, nil
}

// Reopen undoes Finalize so the pages can be finished again, e.g. after a
// failed export.
func (s *Session) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = false
}
