// Package exporter lays collected pages and roster summaries out as PDF.
package exporter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/phpdave11/gofpdf"

	"go-exam-scanner/internal/tracker"
)

const mmPerInch = 25.4

// Cameras commonly write 72 or 96 dpi as a placeholder; such values do not
// describe a paper size and are ignored.
const minPageDPI = 100

var ErrNoPages = errors.New("document has no pages")

// PageImage is one encoded JPEG page. DPIX and DPIY are the resolution
// recorded by the capture device, 0 when unknown.
type PageImage struct {
	Data   []byte
	Width  int
	Height int
	DPIX   float64
	DPIY   float64
}

// SizeMM is the physical page size. The image's own resolution wins when it
// is plausible, a single known axis is used for both, and fallback covers
// the rest.
func (p PageImage) SizeMM(fallback float64) (w, h float64) {
	dx, dy := p.DPIX, p.DPIY
	if dx < minPageDPI {
		dx = 0
	}
	if dy < minPageDPI {
		dy = 0
	}
	if dx == 0 {
		dx = dy
	}
	if dy == 0 {
		dy = dx
	}
	if dx == 0 {
		dx, dy = fallback, fallback
	}
	return float64(p.Width) / dx * mmPerInch, float64(p.Height) / dy * mmPerInch
}

// StudentDocument is everything needed to build one student's scan PDF.
type StudentDocument struct {
	RollNumber  string
	SubjectCode string
	SubjectName string
	Pages       []PageImage
	// DPI overrides the exporter default when > 0. Pages carrying their
	// own resolution keep it.
	DPI float64
}

// Exporter renders PDFs. It holds no per-document state.
type Exporter struct {
	dpi     float64
	creator string
}

// New returns an exporter that sizes pages at defaultDPI.
func New(defaultDPI float64) *Exporter {
	if defaultDPI <= 0 {
		defaultDPI = 150
	}
	return &Exporter{dpi: defaultDPI, creator: "exam-scanner"}
}

// ExportStudent writes one PDF page per image. Each page has the physical
// size of its image at its own DPI, or the document DPI when the image has
// none, so nothing is rescaled.
func (e *Exporter) ExportStudent(w io.Writer, doc StudentDocument) error {
	if len(doc.Pages) == 0 {
		return ErrNoPages
	}
	dpi := doc.DPI
	if dpi <= 0 {
		dpi = e.dpi
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "mm"})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fmt.Sprintf("Answer sheet %s", doc.RollNumber), true)
	pdf.SetSubject(fmt.Sprintf("%s (%s)", doc.SubjectName, doc.SubjectCode), true)
	pdf.SetCreator(e.creator, true)

	opts := gofpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	for i, page := range doc.Pages {
		if len(page.Data) == 0 || page.Width <= 0 || page.Height <= 0 {
			return fmt.Errorf("page %d: empty image", i+1)
		}
		wMM, hMM := page.SizeMM(dpi)

		name := fmt.Sprintf("page_%d", i+1)
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: wMM, Ht: hMM})
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(page.Data))
		pdf.ImageOptions(name, 0, 0, wMM, hMM, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	return pdf.Output(w)
}

// Summary report layout in points on A4.
const (
	reportMarginX    = 50.0
	reportTitleY     = 100.0
	reportGeneratedY = 150.0
	reportFirstRowY  = 200.0
	reportTopY       = 50.0
	reportBottom     = 100.0
)

// SummaryReport lists every scanned student with roll number, subject, page
// count and scan time.
func (e *Exporter) SummaryReport(w io.Writer, students []tracker.Student, now time.Time) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 595.28, Ht: 841.89}})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Student exam scans report", true)
	pdf.SetCreator(e.creator, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(reportMarginX, reportTitleY, "STUDENT EXAM SCANS REPORT")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(128, 128, 128)
	pdf.Text(reportMarginX, reportGeneratedY, "Generated on: "+now.Format("2006-01-02 15:04:05"))

	y := reportFirstRowY
	for _, s := range students {
		if !s.Scanned {
			continue
		}
		if y > pageH-reportBottom {
			pdf.AddPage()
			y = reportTopY
		}

		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(0, 0, 0)
		pdf.Text(reportMarginX, y, tr("Student: "+s.RollNumber))
		y += 30

		pdf.SetFont("Helvetica", "", 12)
		pdf.SetTextColor(77, 77, 77)
		pdf.Text(reportMarginX, y, tr(fmt.Sprintf("Subject: %s (%s)", s.SubjectName, s.SubjectCode)))
		y += 20
		pdf.Text(reportMarginX, y, fmt.Sprintf("Pages Scanned: %d", s.ScannedPages))
		y += 20
		scanTime := "N/A"
		if !s.ScanTime.IsZero() {
			scanTime = s.ScanTime.Format("2006-01-02 15:04:05")
		}
		pdf.Text(reportMarginX, y, "Scan Time: "+scanTime)
		y += 40

		pdf.SetDrawColor(204, 204, 204)
		pdf.SetLineWidth(1)
		pdf.Line(reportMarginX, y, pageW-reportMarginX, y)
		y += 20
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName is the archive name of a student's scan document.
func FileName(rollNumber, subjectCode string) string {
	roll := sanitize(rollNumber)
	if roll == "" {
		roll = "unknown"
	}
	if code := sanitize(subjectCode); code != "" {
		return fmt.Sprintf("Copy_%s_%s.pdf", roll, code)
	}
	return fmt.Sprintf("Copy_%s.pdf", roll)
}

// ReportFileName names the summary report for the given day.
func ReportFileName(now time.Time) string {
	return fmt.Sprintf("exam-scans-%s.pdf", now.Format("2006-01-02"))
}

func sanitize(s string) string {
	return unsafeName.ReplaceAllString(s, "_")
}
