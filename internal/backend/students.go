package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	apperrors "go-exam-scanner/internal/errors"
	"go-exam-scanner/internal/tracker"
)

// RemoteStudent is the backend's student record.
type RemoteStudent struct {
	MongoID        string     `json:"_id,omitempty"`
	PlainID        string     `json:"id,omitempty"`
	RollNumber     string     `json:"rollNumber"`
	SubjectCode    string     `json:"subjectCode"`
	SubjectName    string     `json:"subjectName"`
	Status         string     `json:"status"`
	Remark         string     `json:"remark"`
	IsScanned      bool       `json:"isScanned"`
	ScannedPages   PageCount  `json:"scannedPages"`
	ScanTime       *time.Time `json:"scanTime,omitempty"`
	PDFPath        string     `json:"pdfPath,omitempty"`
	PDFSize        int64      `json:"pdfSize,omitempty"`
	PDFGeneratedAt *time.Time `json:"pdfGeneratedAt,omitempty"`
}

// ID prefers the document id over the plain id.
func (r RemoteStudent) ID() string {
	if r.MongoID != "" {
		return r.MongoID
	}
	return r.PlainID
}

// Student converts the record into a persisted roster entry. Unknown
// statuses fall back to Pending.
func (r RemoteStudent) Student() tracker.Student {
	status, err := tracker.ParseStatus(r.Status)
	if err != nil {
		status = tracker.StatusPending
	}

	ident := tracker.PersistedStudent{ID: r.ID()}
	if r.PDFPath != "" {
		info := &tracker.PDFInfo{Path: r.PDFPath, Size: r.PDFSize}
		if r.PDFGeneratedAt != nil {
			info.GeneratedAt = *r.PDFGeneratedAt
		}
		ident.PDF = info
	}

	st := tracker.Student{
		Identity:     ident,
		RollNumber:   r.RollNumber,
		SubjectCode:  r.SubjectCode,
		SubjectName:  r.SubjectName,
		Status:       status,
		Remark:       r.Remark,
		ScannedPages: int(r.ScannedPages),
		Scanned:      r.IsScanned,
	}
	if r.ScanTime != nil {
		st.ScanTime = *r.ScanTime
	}
	return st
}

// PageCount decodes either a number or an array of page references.
type PageCount int

func (p *PageCount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*p = 0
		return nil
	}
	if b[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*p = PageCount(len(items))
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("scannedPages: %w", err)
	}
	*p = PageCount(n)
	return nil
}

// Stats is the backend's roster summary.
type Stats struct {
	Total   int `json:"total"`
	Scanned int `json:"scanned"`
	Absent  int `json:"absent"`
	Present int `json:"present"`
	Pending int `json:"pending"`
}

// ScanFile is one page image for UploadScans.
type ScanFile struct {
	Name string
	Data []byte
}

// UploadResult is the backend's reply to a scan upload.
type UploadResult struct {
	Message string         `json:"message"`
	Student *RemoteStudent `json:"student,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health returns the backend's reported status.
func (c *Client) Health(ctx context.Context) (string, error) {
	var h healthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return "", err
	}
	return h.Status, nil
}

// ListStudents accepts both {"students": [...]} and a bare array.
func (c *Client) ListStudents(ctx context.Context) ([]RemoteStudent, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/students", nil, &raw); err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	var students []RemoteStudent
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &students); err != nil {
			return nil, apperrors.NewServerError("backend returned a malformed student list", err)
		}
		return students, nil
	}

	var wrapped struct {
		Students []RemoteStudent `json:"students"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, apperrors.NewServerError("backend returned a malformed student list", err)
	}
	return wrapped.Students, nil
}

// UpdateStatus sets status and remark together, as the backend expects.
func (c *Client) UpdateStatus(ctx context.Context, studentID string, status tracker.Status, remark string) error {
	payload := map[string]string{"status": string(status), "remark": remark}
	return c.doJSON(ctx, http.MethodPatch, "/students/"+url.PathEscape(studentID)+"/status", payload, nil)
}

func (c *Client) DeleteStudent(ctx context.Context, studentID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/students/"+url.PathEscape(studentID), nil, nil)
}

func (c *Client) DeleteAll(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/students", nil, nil)
}

// UploadScans posts page images as multipart "scans" files.
func (c *Client) UploadScans(ctx context.Context, studentID string, files []ScanFile) (UploadResult, error) {
	if len(files) == 0 {
		return UploadResult{}, apperrors.NewValidationError("no scans to upload", nil)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, f := range files {
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("page_%d.jpg", i+1)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="scans"; filename=%q`, name))
		h.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(h)
		if err != nil {
			return UploadResult{}, apperrors.NewInternalError("failed to build upload", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return UploadResult{}, apperrors.NewInternalError("failed to build upload", err)
		}
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, apperrors.NewInternalError("failed to build upload", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload/scan/"+url.PathEscape(studentID), &buf)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res UploadResult
	if err := c.do(req, &res); err != nil {
		return UploadResult{}, err
	}
	return res, nil
}

func (c *Client) DeleteScans(ctx context.Context, studentID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/upload/scan/"+url.PathEscape(studentID), nil, nil)
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.doJSON(ctx, http.MethodGet, "/students/stats/summary", nil, &s)
	return s, err
}
