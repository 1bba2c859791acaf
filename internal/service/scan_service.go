package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go-exam-scanner/internal/analyzer"
	"go-exam-scanner/internal/backend"
	"go-exam-scanner/internal/capture"
	"go-exam-scanner/internal/collector"
	apperrors "go-exam-scanner/internal/errors"
	"go-exam-scanner/internal/exporter"
	"go-exam-scanner/internal/logger"
	"go-exam-scanner/internal/normalizer"
	"go-exam-scanner/internal/observer"
	"go-exam-scanner/internal/repository"
	"go-exam-scanner/internal/roster"
	"go-exam-scanner/internal/storage"
	"go-exam-scanner/internal/strategy"
	"go-exam-scanner/internal/tracker"
	"go-exam-scanner/internal/verify"
	"go-exam-scanner/pkg/models"

	"github.com/sirupsen/logrus"
)

// ScanService orchestrates capture, normalization, collection, export and
// status tracking. Errors returned are *errors.AppError.
type ScanService interface {
	// Roster
	ImportRoster(ctx context.Context, r io.Reader) ([]tracker.Student, error)
	SyncRoster(ctx context.Context) ([]tracker.Student, error)
	ListStudents() []tracker.Student
	Stats() tracker.Stats
	BackendStats(ctx context.Context) (backend.Stats, error)
	UpdateStatus(ctx context.Context, studentID string, status tracker.Status, remark *string) (tracker.Student, error)
	RemoveStudent(ctx context.Context, studentID string) error
	ClearRoster(ctx context.Context) error

	// Capture sessions
	StartSession(studentID string) (models.SessionResponse, error)
	Session(studentID string) (models.SessionResponse, error)
	AddPage(ctx context.Context, studentID string, upload Upload) (models.AddPageResponse, error)
	RemovePage(ctx context.Context, studentID, pageID string) error
	FinishSession(ctx context.Context, studentID string) (models.FinishResponse, error)
	FinishAll(ctx context.Context) models.BatchFinishResponse

	// Documents
	OpenPDF(ctx context.Context, studentID string) (io.ReadCloser, string, error)
	Report(w io.Writer) (string, error)

	// Standalone
	Normalize(ctx context.Context, upload Upload) (normalizer.NormalizedImage, models.NormalizeResponse, error)
	Verify(ctx context.Context, data []byte, exp verify.Expectation) (verify.Result, error)

	Metrics() models.MetricsResponse
	Health(ctx context.Context) models.HealthResponse
}

// Upload is one captured image as received from a client.
type Upload struct {
	Data   []byte
	Name   string
	Crop   *normalizer.CropRequest
	Verify bool
}

// Dependencies are the collaborators of the scan service. Verifier,
// Counters, Inspector, Events and Pool may be nil.
type Dependencies struct {
	Normalizer    *normalizer.Normalizer
	Inspector     analyzer.PageInspector
	Tracker       *tracker.Tracker
	Sessions      *collector.Registry
	Exporter      *exporter.Exporter
	Archive       storage.Archive
	Repository    repository.StudentRepository
	Verifier      *verify.Verifier
	Events        observer.Subject
	Counters      *observer.MetricsObserver
	Pool          *analyzer.WorkerPool
	MaxUploadSize int64
	Clock         func() time.Time
}

type scanService struct {
	Dependencies
}

// NewScanService creates a new scan service
func NewScanService(deps Dependencies) ScanService {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.MaxUploadSize <= 0 {
		deps.MaxUploadSize = capture.DefaultMaxSize
	}
	if deps.Repository == nil {
		deps.Repository = repository.NewLocalStudentRepository()
	}
	return &scanService{Dependencies: deps}
}

func (s *scanService) ImportRoster(ctx context.Context, r io.Reader) ([]tracker.Student, error) {
	students, err := roster.Import(r)
	if err != nil {
		return nil, toAppError(err)
	}
	return s.loadRoster(students)
}

func (s *scanService) SyncRoster(ctx context.Context) ([]tracker.Student, error) {
	students, err := s.Repository.ListStudents(ctx)
	if err != nil {
		return nil, toAppError(err)
	}
	return s.loadRoster(students)
}

func (s *scanService) loadRoster(students []tracker.Student) ([]tracker.Student, error) {
	snap, err := s.Tracker.Apply(tracker.RosterLoaded{Students: students})
	if err != nil {
		return nil, toAppError(err)
	}
	s.Sessions.Reset()
	logger.WithField("students", snap.Len()).Info("Roster loaded")
	return snap.Students(), nil
}

func (s *scanService) ListStudents() []tracker.Student {
	return s.Tracker.Snapshot().Students()
}

func (s *scanService) Stats() tracker.Stats {
	return s.Tracker.Snapshot().Stats()
}

// BackendStats returns the records backend's own counts.
func (s *scanService) BackendStats(ctx context.Context) (backend.Stats, error) {
	stats, err := s.Repository.Stats(ctx)
	if err != nil {
		return backend.Stats{}, toAppError(err)
	}
	return stats, nil
}

func (s *scanService) student(id string) (tracker.Student, error) {
	st, ok := s.Tracker.Snapshot().Get(id)
	if !ok {
		return tracker.Student{}, toAppError(fmt.Errorf("%w: %s", tracker.ErrStudentNotFound, id))
	}
	return st, nil
}

// UpdateStatus validates the change against the current snapshot, mirrors
// it to the backend for persisted students and only then applies it.
// Marking a student absent also drops their session, scans and PDF.
func (s *scanService) UpdateStatus(ctx context.Context, studentID string, status tracker.Status, remark *string) (tracker.Student, error) {
	events := []tracker.Event{tracker.StatusChanged{StudentID: studentID, Status: status}}
	if remark != nil {
		events = append(events, tracker.RemarkChanged{StudentID: studentID, Remark: *remark})
	}

	preview := s.Tracker.Snapshot()
	for _, ev := range events {
		next, err := tracker.Reduce(preview, ev)
		if err != nil {
			return tracker.Student{}, toAppError(err)
		}
		preview = next
	}
	before, _ := s.Tracker.Snapshot().Get(studentID)
	st, _ := preview.Get(studentID)

	if st.Identity.Persisted() {
		if err := s.Repository.UpdateStatus(ctx, studentID, st.Status, st.Remark); err != nil {
			return tracker.Student{}, toAppError(err)
		}
	}

	var snap tracker.Snapshot
	for _, ev := range events {
		var err error
		if snap, err = s.Tracker.Apply(ev); err != nil {
			return tracker.Student{}, toAppError(err)
		}
	}
	if status == tracker.StatusAbsent {
		s.Sessions.Discard(studentID)
		if before.Scanned && st.Identity.Persisted() {
			if err := s.Repository.DeleteScans(ctx, studentID); err != nil {
				logger.ForStudent(studentID, err).Warn("Failed to delete backend scans")
			}
		}
		s.dropPDF(ctx, before)
		snap = s.Tracker.Snapshot()
	}

	st, _ = snap.Get(studentID)
	return st, nil
}

func (s *scanService) RemoveStudent(ctx context.Context, studentID string) error {
	st, err := s.student(studentID)
	if err != nil {
		return err
	}
	if st.Identity.Persisted() {
		if err := s.Repository.DeleteStudent(ctx, studentID); err != nil {
			return toAppError(err)
		}
	}
	if _, err := s.Tracker.Apply(tracker.StudentRemoved{StudentID: studentID}); err != nil {
		return toAppError(err)
	}
	s.Sessions.Discard(studentID)
	s.dropPDF(ctx, st)
	return nil
}

func (s *scanService) ClearRoster(ctx context.Context) error {
	if s.Repository.Remote() {
		if err := s.Repository.DeleteAll(ctx); err != nil {
			return toAppError(err)
		}
	}
	if _, err := s.Tracker.Apply(tracker.RosterCleared{}); err != nil {
		return toAppError(err)
	}
	s.Sessions.Reset()
	return nil
}

// dropPDF detaches the student's document if they are still on the roster
// and removes it from the archive. Failures are only logged.
func (s *scanService) dropPDF(ctx context.Context, st tracker.Student) {
	pdf := st.PDF()
	if pdf == nil {
		return
	}
	if _, ok := s.Tracker.Snapshot().Get(st.ID()); ok {
		if _, err := s.Tracker.Apply(tracker.PDFRemoved{StudentID: st.ID()}); err != nil {
			logger.ForStudent(st.ID(), err).Warn("Failed to detach PDF")
		}
	}
	if err := s.Archive.Delete(ctx, path.Base(pdf.Path)); err != nil {
		logger.ForStudent(st.ID(), err).Warn("Failed to delete archived PDF")
	}
}

func (s *scanService) capturable(studentID string) (tracker.Student, error) {
	st, err := s.student(studentID)
	if err != nil {
		return st, err
	}
	if st.Status == tracker.StatusAbsent {
		return st, toAppError(fmt.Errorf("%w: %s", tracker.ErrStudentAbsent, st.RollNumber))
	}
	return st, nil
}

func (s *scanService) StartSession(studentID string) (models.SessionResponse, error) {
	if _, err := s.capturable(studentID); err != nil {
		return models.SessionResponse{}, err
	}
	sess := s.Sessions.Start(studentID)
	return models.NewSessionResponse(studentID, sess.StartedAt(), nil), nil
}

func (s *scanService) Session(studentID string) (models.SessionResponse, error) {
	sess, err := s.Sessions.Get(studentID)
	if err != nil {
		return models.SessionResponse{}, toAppError(err)
	}
	return models.NewSessionResponse(studentID, sess.StartedAt(), sess.Pages()), nil
}

// normalized is a page ready for collection.
type normalized struct {
	img      normalizer.NormalizedImage
	quality  analyzer.PageQuality
	strategy string
	meta     capture.Metadata
}

// normalize runs validate, decode, orient and the chosen strategy, then
// inspects the composed page.
func (s *scanService) normalize(ctx context.Context, up Upload) (normalized, error) {
	frame, err := capture.BytesSource{Data: up.Data, Name: up.Name, MaxSize: s.MaxUploadSize}.Acquire(ctx)
	if err != nil {
		return normalized{}, toAppError(err)
	}
	raw, err := normalizer.Decode(frame.Data)
	if err != nil {
		return normalized{}, toAppError(err)
	}
	raw = normalizer.Orient(raw, frame.Meta.Orientation)

	strat := strategy.ForRequest(s.Normalizer, up.Crop)
	img, err := strat.Normalize(raw)
	if err != nil {
		return normalized{}, toAppError(err)
	}

	out := normalized{img: img, strategy: strat.GetStrategyName(), meta: frame.Meta.Oriented()}
	if s.Inspector != nil && img.Pixels() != nil {
		out.quality = s.Inspector.Inspect(img.Pixels())
	}
	return out, nil
}

func (s *scanService) AddPage(ctx context.Context, studentID string, up Upload) (models.AddPageResponse, error) {
	st, err := s.capturable(studentID)
	if err != nil {
		return models.AddPageResponse{}, err
	}
	sess, err := s.Sessions.Get(studentID)
	if err != nil {
		sess = s.Sessions.Start(studentID)
	}

	n, err := s.normalize(ctx, up)
	if err != nil {
		return models.AddPageResponse{}, err
	}
	img, quality := n.img, n.quality

	page, added, err := sess.Append(img, collector.PageMeta{
		CapturedAt: s.Clock(),
		Source:     up.Name,
		Quality:    &quality,
		DPIX:       n.meta.DPIX,
		DPIY:       n.meta.DPIY,
	})
	if err != nil {
		return models.AddPageResponse{}, toAppError(err)
	}

	resp := models.AddPageResponse{
		Page:          models.NewPageResponse(page),
		Added:         added,
		PageCount:     sess.Len(),
		RetakeAdvised: quality.RetakeAdvised,
		Issues:        quality.Messages(),
	}

	if added {
		s.publish(ctx, observer.Event{
			Type:      observer.PageAdded,
			StudentID: studentID,
			PageID:    page.ID,
			PageCount: resp.PageCount,
			Metadata:  map[string]interface{}{"strategy": n.strategy, "detector": img.Detector},
		})
	}

	if up.Verify && s.Verifier != nil {
		res, err := s.Verifier.Verify(ctx, img.Data, verify.Expectation{RollNumber: st.RollNumber, SubjectName: st.SubjectName})
		if err != nil {
			logger.ForStudent(studentID, err).Warn("Page verification failed")
		} else {
			resp.Verification = &res
		}
	}
	return resp, nil
}

func (s *scanService) RemovePage(ctx context.Context, studentID, pageID string) error {
	sess, err := s.Sessions.Get(studentID)
	if err != nil {
		return toAppError(err)
	}
	if err := sess.Remove(pageID); err != nil {
		return toAppError(err)
	}
	s.publish(ctx, observer.Event{
		Type:      observer.PageRemoved,
		StudentID: studentID,
		PageID:    pageID,
		PageCount: sess.Len(),
	})
	return nil
}

// FinishSession finalizes the pages, exports and archives the PDF, records
// the pages and, for persisted students, uploads the scans. Until the pages
// are recorded a failure reopens the session so the finish can be retried.
func (s *scanService) FinishSession(ctx context.Context, studentID string) (models.FinishResponse, error) {
	st, err := s.capturable(studentID)
	if err != nil {
		return models.FinishResponse{}, err
	}
	sess, err := s.Sessions.Get(studentID)
	if err != nil {
		return models.FinishResponse{}, toAppError(err)
	}
	pages, err := sess.Finalize()
	if err != nil {
		return models.FinishResponse{}, toAppError(err)
	}

	start := time.Now()
	pdf, err := s.export(ctx, st, pages)
	if err != nil {
		sess.Reopen()
		s.publish(ctx, observer.Event{
			Type:           observer.ExportFailed,
			StudentID:      studentID,
			PageCount:      len(pages),
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return models.FinishResponse{}, apperrors.NewProcessingError("failed to export scan document", err)
	}

	if err := s.notify(ctx, observer.Event{
		Type:      observer.SessionFinished,
		StudentID: studentID,
		PageCount: len(pages),
	}); err != nil {
		sess.Reopen()
		return models.FinishResponse{}, toAppError(err)
	}

	if err := s.notify(ctx, observer.Event{
		Type:           observer.ExportCompleted,
		StudentID:      studentID,
		PageCount:      len(pages),
		PDF:            &pdf,
		ProcessingTime: time.Since(start),
	}); err != nil {
		return models.FinishResponse{}, toAppError(err)
	}

	resp := models.FinishResponse{PDF: pdf, Pages: len(pages)}
	if st.Identity.Persisted() && s.Repository.Remote() {
		data := make([][]byte, len(pages))
		for i, p := range pages {
			data[i] = p.Image.Data
		}
		if err := s.Repository.UploadScans(ctx, studentID, data); err != nil {
			logger.ForStudent(studentID, err).Warn("Failed to upload scans to backend")
			resp.UploadError = err.Error()
		} else {
			resp.Uploaded = true
		}
	}

	current, _ := s.Tracker.Snapshot().Get(studentID)
	resp.Student = models.NewStudentResponse(current)
	return resp, nil
}

func (s *scanService) export(ctx context.Context, st tracker.Student, pages []collector.Page) (tracker.PDFInfo, error) {
	doc := exporter.StudentDocument{
		RollNumber:  st.RollNumber,
		SubjectCode: st.SubjectCode,
		SubjectName: st.SubjectName,
		Pages:       make([]exporter.PageImage, len(pages)),
	}
	for i, p := range pages {
		doc.Pages[i] = exporter.PageImage{
			Data:   p.Image.Data,
			Width:  p.Image.Width,
			Height: p.Image.Height,
			DPIX:   p.DPIX,
			DPIY:   p.DPIY,
		}
	}

	var buf bytes.Buffer
	if err := s.Exporter.ExportStudent(&buf, doc); err != nil {
		return tracker.PDFInfo{}, err
	}
	loc, err := s.Archive.Save(ctx, exporter.FileName(st.RollNumber, st.SubjectCode), &buf)
	if err != nil {
		return tracker.PDFInfo{}, err
	}
	return tracker.PDFInfo{Path: loc.Path, Size: loc.Size, GeneratedAt: s.Clock()}, nil
}

// FinishAll finishes every open non-empty session on the worker pool.
func (s *scanService) FinishAll(ctx context.Context) models.BatchFinishResponse {
	ids := s.Sessions.Open()
	results := make([]models.FinishResponse, len(ids))

	var errs []error
	if s.Pool != nil {
		errs = analyzer.Map(ctx, s.Pool, len(ids), func(i int) error {
			var err error
			results[i], err = s.FinishSession(ctx, ids[i])
			return err
		})
	} else {
		errs = make([]error, len(ids))
		for i, id := range ids {
			results[i], errs[i] = s.FinishSession(ctx, id)
		}
	}

	out := models.BatchFinishResponse{Finished: make([]models.FinishResponse, 0, len(ids))}
	for i, err := range errs {
		if err != nil {
			if out.Failed == nil {
				out.Failed = make(map[string]string)
			}
			out.Failed[ids[i]] = err.Error()
			continue
		}
		out.Finished = append(out.Finished, results[i])
	}
	return out
}

func (s *scanService) OpenPDF(ctx context.Context, studentID string) (io.ReadCloser, string, error) {
	st, err := s.student(studentID)
	if err != nil {
		return nil, "", err
	}
	pdf := st.PDF()
	if pdf == nil {
		return nil, "", apperrors.NewNotFoundError("no PDF exported for student", nil)
	}
	name := path.Base(strings.ReplaceAll(pdf.Path, `\`, "/"))
	rc, err := s.Archive.Open(ctx, name)
	if err != nil {
		return nil, "", toAppError(err)
	}
	return rc, name, nil
}

func (s *scanService) Report(w io.Writer) (string, error) {
	now := s.Clock()
	if err := s.Exporter.SummaryReport(w, s.Tracker.Snapshot().Scanned(), now); err != nil {
		return "", apperrors.NewProcessingError("failed to render report", err)
	}
	return exporter.ReportFileName(now), nil
}

func (s *scanService) Normalize(ctx context.Context, up Upload) (normalizer.NormalizedImage, models.NormalizeResponse, error) {
	n, err := s.normalize(ctx, up)
	if err != nil {
		return normalizer.NormalizedImage{}, models.NormalizeResponse{}, err
	}
	img := n.img
	resp := models.NormalizeResponse{
		Data:     img.Data,
		Format:   img.Format,
		Width:    img.Width,
		Height:   img.Height,
		Quality:  img.Quality,
		Region:   img.Region,
		Detector: img.Detector,
		Strategy: n.strategy,
	}
	if s.Inspector != nil {
		resp.Page = &n.quality
	}
	return img.Compact(), resp, nil
}

func (s *scanService) Verify(ctx context.Context, data []byte, exp verify.Expectation) (verify.Result, error) {
	if s.Verifier == nil {
		return verify.Result{}, apperrors.NewValidationError("OCR verification is disabled", nil)
	}
	if _, err := capture.Validate(data, s.MaxUploadSize); err != nil {
		return verify.Result{}, toAppError(err)
	}
	res, err := s.Verifier.Verify(ctx, data, exp)
	if err != nil {
		if apperr := toAppError(err); apperrors.IsType(apperr, apperrors.ErrorTypeValidation) {
			return verify.Result{}, apperr
		}
		return verify.Result{}, apperrors.NewProcessingError("OCR failed", err)
	}
	return res, nil
}

func (s *scanService) Metrics() models.MetricsResponse {
	var m models.MetricsResponse
	if s.Counters != nil {
		m.Events = s.Counters.GetMetrics()
	}
	if s.Pool != nil {
		m.Pool = s.Pool.GetStats()
	}
	m.OpenSessions = len(s.Sessions.Open())
	return m
}

// Health reports liveness and, when a records backend is configured,
// whether it answers.
func (s *scanService) Health(ctx context.Context) models.HealthResponse {
	resp := models.HealthResponse{
		Status:  "available",
		Version: models.Version,
		Time:    s.Clock().UTC().Format(time.RFC3339),
		Backend: models.BackendDisabled,
	}
	if !s.Repository.Remote() {
		return resp
	}
	status, err := s.Repository.Health(ctx)
	if err != nil {
		resp.Backend = models.BackendUnreachable
		resp.BackendError = err.Error()
		return resp
	}
	resp.Backend = models.BackendOK
	resp.BackendStatus = status
	return resp
}

// notify delivers an event whose observers must succeed.
func (s *scanService) notify(ctx context.Context, ev observer.Event) error {
	if s.Events == nil {
		return nil
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.Clock()
	}
	return s.Events.NotifyObservers(ctx, ev)
}

// publish delivers an informational event; observer errors are logged.
func (s *scanService) publish(ctx context.Context, ev observer.Event) {
	if err := s.notify(ctx, ev); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"event_type": ev.Type,
			"student_id": ev.StudentID,
		}).Warn("Observer rejected event")
	}
}
