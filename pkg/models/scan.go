package models

import (
	"time"

	"go-exam-scanner/internal/analyzer"
	"go-exam-scanner/internal/collector"
	"go-exam-scanner/internal/normalizer"
	"go-exam-scanner/internal/observer"
	"go-exam-scanner/internal/tracker"
	"go-exam-scanner/internal/verify"
)

// StudentResponse is the wire form of a roster entry
type StudentResponse struct {
	ID           string           `json:"id"`
	RollNumber   string           `json:"roll_number"`
	SubjectCode  string           `json:"subject_code"`
	SubjectName  string           `json:"subject_name"`
	Status       tracker.Status   `json:"status"`
	Remark       string           `json:"remark,omitempty"`
	ScannedPages int              `json:"scanned_pages"`
	Scanned      bool             `json:"is_scanned"`
	ScanTime     *time.Time       `json:"scan_time,omitempty"`
	Persisted    bool             `json:"persisted"`
	PDF          *tracker.PDFInfo `json:"pdf,omitempty"`
}

func NewStudentResponse(s tracker.Student) StudentResponse {
	r := StudentResponse{
		ID:           s.ID(),
		RollNumber:   s.RollNumber,
		SubjectCode:  s.SubjectCode,
		SubjectName:  s.SubjectName,
		Status:       s.Status,
		Remark:       s.Remark,
		ScannedPages: s.ScannedPages,
		Scanned:      s.Scanned,
		PDF:          s.PDF(),
	}
	if s.Identity != nil {
		r.Persisted = s.Identity.Persisted()
	}
	if !s.ScanTime.IsZero() {
		t := s.ScanTime
		r.ScanTime = &t
	}
	return r
}

// StudentListResponse wraps the roster
type StudentListResponse struct {
	Students []StudentResponse `json:"students"`
	Total    int               `json:"total"`
}

func NewStudentListResponse(students []tracker.Student) StudentListResponse {
	out := make([]StudentResponse, len(students))
	for i, s := range students {
		out[i] = NewStudentResponse(s)
	}
	return StudentListResponse{Students: out, Total: len(out)}
}

// StatsResponse mirrors tracker.Stats
type StatsResponse struct {
	Total     int `json:"total"`
	Scanned   int `json:"scanned"`
	Absent    int `json:"absent"`
	Remaining int `json:"remaining"`
	PDFs      int `json:"pdfs"`
}

func NewStatsResponse(s tracker.Stats) StatsResponse {
	return StatsResponse(s)
}

// NormalizeResponse describes a normalized image. Data is base64 encoded
// by encoding/json.
type NormalizeResponse struct {
	Data     []byte                  `json:"data"`
	Format   string                  `json:"format"`
	Width    int                     `json:"width"`
	Height   int                     `json:"height"`
	Quality  int                     `json:"quality"`
	Region   normalizer.BoundingBox  `json:"region"`
	Detector normalizer.DetectorKind `json:"detector"`
	Strategy string                  `json:"strategy"`
	Page     *analyzer.PageQuality   `json:"page_quality,omitempty"`
}

// PageResponse is one collected page without its image bytes
type PageResponse struct {
	ID         string                  `json:"id"`
	Sequence   int                     `json:"sequence"`
	CapturedAt time.Time               `json:"captured_at"`
	Source     string                  `json:"source,omitempty"`
	Width      int                     `json:"width"`
	Height     int                     `json:"height"`
	Region     normalizer.BoundingBox  `json:"region"`
	Detector   normalizer.DetectorKind `json:"detector"`
	Quality    *analyzer.PageQuality   `json:"quality,omitempty"`
	DPIX       float64                 `json:"dpi_x,omitempty"`
	DPIY       float64                 `json:"dpi_y,omitempty"`
}

func NewPageResponse(p collector.Page) PageResponse {
	return PageResponse{
		ID:         p.ID,
		Sequence:   p.Sequence,
		CapturedAt: p.CapturedAt,
		Source:     p.Source,
		Width:      p.Image.Width,
		Height:     p.Image.Height,
		Region:     p.Image.Region,
		Detector:   p.Image.Detector,
		Quality:    p.Quality,
		DPIX:       p.DPIX,
		DPIY:       p.DPIY,
	}
}

// SessionResponse lists the pages of an open session
type SessionResponse struct {
	StudentID string         `json:"student_id"`
	StartedAt time.Time      `json:"started_at"`
	Pages     []PageResponse `json:"pages"`
}

func NewSessionResponse(studentID string, startedAt time.Time, pages []collector.Page) SessionResponse {
	out := make([]PageResponse, len(pages))
	for i, p := range pages {
		out[i] = NewPageResponse(p)
	}
	return SessionResponse{StudentID: studentID, StartedAt: startedAt, Pages: out}
}

// AddPageResponse reports a page upload. Added is false for a duplicate.
type AddPageResponse struct {
	Page          PageResponse   `json:"page"`
	Added         bool           `json:"added"`
	PageCount     int            `json:"page_count"`
	RetakeAdvised bool           `json:"retake_advised"`
	Issues        []string       `json:"issues,omitempty"`
	Verification  *verify.Result `json:"verification,omitempty"`
}

// FinishResponse reports a finished session
type FinishResponse struct {
	Student     StudentResponse `json:"student"`
	PDF         tracker.PDFInfo `json:"pdf"`
	Pages       int             `json:"pages"`
	Uploaded    bool            `json:"uploaded"`
	UploadError string          `json:"upload_error,omitempty"`
}

// BatchFinishResponse reports a bulk finish
type BatchFinishResponse struct {
	Finished []FinishResponse  `json:"finished"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// MetricsResponse exposes service counters
type MetricsResponse struct {
	Events       observer.Metrics   `json:"events"`
	Pool         analyzer.PoolStats `json:"pool"`
	OpenSessions int                `json:"open_sessions"`
}

// ImportResponse reports a roster import or sync
type ImportResponse struct {
	Imported int               `json:"imported"`
	Students []StudentResponse `json:"students"`
}

// Version is reported by the health endpoint
const Version = "1.0.0"

// Records backend states reported by HealthResponse
const (
	BackendDisabled    = "disabled"
	BackendOK          = "ok"
	BackendUnreachable = "unreachable"
)

// HealthResponse reports service liveness and the records backend
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Time          string `json:"time"`
	Backend       string `json:"backend"`
	BackendStatus string `json:"backend_status,omitempty"`
	BackendError  string `json:"backend_error,omitempty"`
}
