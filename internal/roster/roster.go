// Package roster imports the exam roster from a spreadsheet export.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"go-exam-scanner/internal/tracker"
)

const (
	ColumnRollNumber  = "roll number"
	ColumnSubjectCode = "subject code"
	ColumnSubjectName = "subject name"
)

var (
	ErrNoDataRows  = errors.New("roster must contain at least one data row")
	ErrNoValidRows = errors.New("no valid rows found in roster")
)

// MissingColumnsError lists the required headers that were not found.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// Row is one parsed roster line.
type Row struct {
	RollNumber  string `json:"roll_number"`
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
}

// Parse reads a CSV roster. The header row is matched case-insensitively;
// extra columns are ignored. Rows with fewer than three cells are skipped.
func Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrNoDataRows
	}

	idx := make(map[string]int)
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	var missing []string
	for _, col := range []string{ColumnRollNumber, ColumnSubjectCode, ColumnSubjectName} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	cell := func(rec []string, col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []Row
	for _, rec := range records[1:] {
		if len(rec) < 3 {
			continue
		}
		row := Row{
			RollNumber:  cell(rec, ColumnRollNumber),
			SubjectCode: cell(rec, ColumnSubjectCode),
			SubjectName: cell(rec, ColumnSubjectName),
		}
		if row.RollNumber == "" {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoValidRows
	}
	return rows, nil
}

// Students turns rows into pending local students with fresh ids.
func Students(rows []Row) []tracker.Student {
	out := make([]tracker.Student, len(rows))
	for i, r := range rows {
		out[i] = tracker.NewLocal(uuid.NewString(), r.RollNumber, r.SubjectCode, r.SubjectName)
	}
	return out
}

// Import parses r and returns the roster students.
func Import(r io.Reader) ([]tracker.Student, error) {
	rows, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return Students(rows), nil
}
