package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrStudentAbsent   = errors.New("student is marked absent")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrDuplicateID     = errors.New("duplicate student id")
)

// Status is the attendance state of a student.
type Status string

const (
	StatusPending Status = "Pending"
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// ParseStatus accepts any casing of the three statuses.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "present":
		return StatusPresent, nil
	case "absent":
		return StatusAbsent, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// PDFInfo describes an exported scan document.
type PDFInfo struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Identity distinguishes students that only exist in this process from
// students known to the records backend. The set of implementations is
// closed.
type Identity interface {
	Key() string
	Persisted() bool
	identity()
}

// LocalStudent is a roster entry created locally, e.g. from a CSV import.
// Exporting a PDF never turns it into a PersistedStudent.
type LocalStudent struct {
	ID  string
	PDF *PDFInfo
}

func (l LocalStudent) Key() string     { return l.ID }
func (l LocalStudent) Persisted() bool { return false }
func (LocalStudent) identity()         {}

// PersistedStudent is a roster entry the records backend knows by ID. It
// only comes from the backend. PDF is nil until a scan document has been
// exported.
type PersistedStudent struct {
	ID  string
	PDF *PDFInfo
}

func (p PersistedStudent) Key() string     { return p.ID }
func (p PersistedStudent) Persisted() bool { return true }
func (PersistedStudent) identity()         {}

// Student is one roster row. Values are copied in and out of snapshots.
type Student struct {
	Identity     Identity
	RollNumber   string
	SubjectCode  string
	SubjectName  string
	Status       Status
	Remark       string
	ScannedPages int
	Scanned      bool
	ScanTime     time.Time
}

func (s Student) ID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Key()
}

// PDF returns a copy of the export info, or nil.
func (s Student) PDF() *PDFInfo {
	var pdf *PDFInfo
	switch id := s.Identity.(type) {
	case LocalStudent:
		pdf = id.PDF
	case PersistedStudent:
		pdf = id.PDF
	}
	if pdf == nil {
		return nil
	}
	cp := *pdf
	return &cp
}

// withPDF returns the identity with its export info replaced, keeping the
// identity kind.
func withPDF(id Identity, pdf *PDFInfo) Identity {
	switch v := id.(type) {
	case LocalStudent:
		v.PDF = pdf
		return v
	case PersistedStudent:
		v.PDF = pdf
		return v
	}
	return id
}

// NewLocal builds a pending local student.
func NewLocal(id, roll, subjectCode, subjectName string) Student {
	return Student{
		Identity:    LocalStudent{ID: id},
		RollNumber:  roll,
		SubjectCode: subjectCode,
		SubjectName: subjectName,
		Status:      StatusPending,
	}
}
