package tracker

import (
	"fmt"
	"time"
)

// Event is a roster state transition. Implementations are defined in this
// package only.
type Event interface {
	event()
}

// RosterLoaded replaces the whole roster.
type RosterLoaded struct {
	Students []Student
}

// StatusChanged sets attendance. Marking a student absent discards their
// scan state.
type StatusChanged struct {
	StudentID string
	Status    Status
}

type RemarkChanged struct {
	StudentID string
	Remark    string
}

// PagesCaptured records n finalized pages for a student.
type PagesCaptured struct {
	StudentID string
	Count     int
	At        time.Time
}

// PDFExported attaches export info. The identity kind is unchanged.
type PDFExported struct {
	StudentID string
	PDF       PDFInfo
}

type PDFRemoved struct {
	StudentID string
}

type StudentRemoved struct {
	StudentID string
}

type RosterCleared struct{}

func (RosterLoaded) event()   {}
func (StatusChanged) event()  {}
func (RemarkChanged) event()  {}
func (PagesCaptured) event()  {}
func (PDFExported) event()    {}
func (PDFRemoved) event()     {}
func (StudentRemoved) event() {}
func (RosterCleared) event()  {}

// Reduce applies e to s and returns the resulting snapshot. s is never
// modified; on error the returned snapshot is s.
func Reduce(s Snapshot, e Event) (Snapshot, error) {
	switch ev := e.(type) {
	case RosterLoaded:
		students := make([]Student, len(ev.Students))
		seen := make(map[string]bool, len(ev.Students))
		for i, st := range ev.Students {
			id := st.ID()
			if id == "" {
				return s, fmt.Errorf("roster row %d: missing id", i+1)
			}
			if seen[id] {
				return s, fmt.Errorf("%w: %s", ErrDuplicateID, id)
			}
			seen[id] = true
			if st.Status == "" {
				st.Status = StatusPending
			}
			students[i] = st
		}
		return newSnapshot(students), nil

	case StatusChanged:
		return update(s, ev.StudentID, func(st Student) (Student, error) {
			if _, err := ParseStatus(string(ev.Status)); err != nil {
				return st, err
			}
			st.Status = ev.Status
			if ev.Status == StatusAbsent {
				st.Scanned = false
				st.ScannedPages = 0
				st.ScanTime = time.Time{}
			}
			return st, nil
		})

	case RemarkChanged:
		return update(s, ev.StudentID, func(st Student) (Student, error) {
			st.Remark = ev.Remark
			return st, nil
		})

	case PagesCaptured:
		return update(s, ev.StudentID, func(st Student) (Student, error) {
			if st.Status == StatusAbsent {
				return st, fmt.Errorf("%w: %s", ErrStudentAbsent, st.RollNumber)
			}
			if ev.Count <= 0 {
				return st, nil
			}
			st.Scanned = true
			st.ScannedPages += ev.Count
			st.ScanTime = ev.At
			if st.Status == StatusPending {
				st.Status = StatusPresent
			}
			return st, nil
		})

	case PDFExported:
		return update(s, ev.StudentID, func(st Student) (Student, error) {
			pdf := ev.PDF
			st.Identity = withPDF(st.Identity, &pdf)
			return st, nil
		})

	case PDFRemoved:
		return update(s, ev.StudentID, func(st Student) (Student, error) {
			st.Identity = withPDF(st.Identity, nil)
			return st, nil
		})

	case StudentRemoved:
		i, ok := s.index[ev.StudentID]
		if !ok {
			return s, fmt.Errorf("%w: %s", ErrStudentNotFound, ev.StudentID)
		}
		return s.without(i), nil

	case RosterCleared:
		return Snapshot{}, nil
	}
	return s, fmt.Errorf("unknown event %T", e)
}

func update(s Snapshot, id string, fn func(Student) (Student, error)) (Snapshot, error) {
	i, ok := s.index[id]
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
	}
	st, err := fn(s.students[i])
	if err != nil {
		return s, err
	}
	return s.with(i, st), nil
}
