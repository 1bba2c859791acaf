package exporter

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"strings"
	"testing"
	"time"

	"go-exam-scanner/internal/tracker"
)

func jpegPage(t *testing.T, w, h int) PageImage {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(w/2, h/2, color.Black)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode page: %v", err)
	}
	return PageImage{Data: buf.Bytes(), Width: w, Height: h}
}

func pageCount(pdf []byte) int {
	return bytes.Count(pdf, []byte("/Type /Page\n"))
}

func TestExportStudent(t *testing.T) {
	e := New(150)
	doc := StudentDocument{
		RollNumber:  "2301",
		SubjectCode: "CS101",
		SubjectName: "Programming",
		Pages:       []PageImage{jpegPage(t, 300, 420), jpegPage(t, 420, 300), jpegPage(t, 150, 150)},
	}

	var buf bytes.Buffer
	if err := e.ExportStudent(&buf, doc); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("Expected PDF header, got %q", out[:min(len(out), 8)])
	}
	if n := pageCount(out); n != 3 {
		t.Errorf("Expected 3 pages, got %d", n)
	}
}

func TestPageImage_SizeMM(t *testing.T) {
	tests := []struct {
		name       string
		dpiX, dpiY float64
		wantW      float64
		wantH      float64
	}{
		{"device resolution", 300, 300, 50.8, 25.4},
		{"fallback when unknown", 0, 0, 101.6, 50.8},
		{"single axis", 0, 300, 50.8, 25.4},
		{"anisotropic", 600, 300, 25.4, 25.4},
		{"placeholder 72 dpi ignored", 72, 72, 101.6, 50.8},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := PageImage{Width: 600, Height: 300, DPIX: tc.dpiX, DPIY: tc.dpiY}
			w, h := p.SizeMM(150)
			if math.Abs(w-tc.wantW) > 1e-9 || math.Abs(h-tc.wantH) > 1e-9 {
				t.Errorf("SizeMM() = %.3fx%.3f, want %.3fx%.3f", w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestExportStudent_PageDPI(t *testing.T) {
	page := jpegPage(t, 600, 300)
	page.DPIX, page.DPIY = 300, 300
	doc := StudentDocument{RollNumber: "2301", Pages: []PageImage{page, jpegPage(t, 600, 300)}}

	var buf bytes.Buffer
	if err := New(150).ExportStudent(&buf, doc); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// 50.8 x 25.4 mm at 300 dpi, 101.6 x 50.8 mm at the 150 dpi default.
	for _, box := range []string{"/MediaBox [0 0 144.00 72.00]", "/MediaBox [0 0 288.00 144.00]"} {
		if !bytes.Contains(buf.Bytes(), []byte(box)) {
			t.Errorf("Expected %s in output", box)
		}
	}
}

func TestExportStudent_NoPages(t *testing.T) {
	var buf bytes.Buffer
	err := New(150).ExportStudent(&buf, StudentDocument{RollNumber: "1"})
	if !errors.Is(err, ErrNoPages) {
		t.Errorf("Expected ErrNoPages, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("Expected nothing written")
	}
}

func TestExportStudent_CorruptPage(t *testing.T) {
	var buf bytes.Buffer
	doc := StudentDocument{Pages: []PageImage{{Data: []byte("not a jpeg"), Width: 10, Height: 10}}}
	if err := New(150).ExportStudent(&buf, doc); err == nil {
		t.Error("Expected corrupt page to fail")
	}
}

func TestSummaryReport(t *testing.T) {
	now := time.Date(2025, 3, 14, 16, 0, 0, 0, time.UTC)
	var students []tracker.Student
	for i := 0; i < 20; i++ {
		s := tracker.NewLocal("id", "23"+string(rune('A'+i)), "CS101", "Programming")
		s.Scanned = i%2 == 0
		s.ScannedPages = 2
		s.ScanTime = now
		students = append(students, s)
	}

	var buf bytes.Buffer
	if err := New(150).SummaryReport(&buf, students, now); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// 10 scanned rows of 130pt starting at 200pt spill onto a second A4 page
	if n := pageCount(buf.Bytes()); n != 2 {
		t.Errorf("Expected 2 pages, got %d", n)
	}
}

func TestSummaryReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := New(150).SummaryReport(&buf, nil, time.Now()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if pageCount(buf.Bytes()) != 1 {
		t.Error("Expected a single title page")
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		roll, code, want string
	}{
		{"2301", "CS101", "Copy_2301_CS101.pdf"},
		{"23/01", "CS 101", "Copy_23_01_CS_101.pdf"},
		{"", "CS101", "Copy_unknown_CS101.pdf"},
		{"2301", "", "Copy_2301.pdf"},
	}
	for _, tt := range tests {
		if got := FileName(tt.roll, tt.code); got != tt.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tt.roll, tt.code, got, tt.want)
		}
	}
	if !strings.HasSuffix(ReportFileName(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)), "2025-03-14.pdf") {
		t.Error("Unexpected report file name")
	}
}
