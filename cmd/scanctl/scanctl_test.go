package main

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSheet(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{30, 30, 30, 255}}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(60, 30, 260, 210), &image.Uniform{color.White}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNormalizeCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "sheet.png")
	writeSheet(t, in)

	out, err := run(t, "normalize", in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := filepath.Join(dir, "sheet_normalized.jpg")
	if !strings.HasPrefix(out, want) {
		t.Errorf("Expected output to name %s, got %q", want, out)
	}
	data, err := os.ReadFile(want)
	if err != nil || !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Errorf("Expected a JPEG at %s, err %v", want, err)
	}
}

func TestCropCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "sheet.png")
	writeSheet(t, in)
	dst := filepath.Join(dir, "out", "crop.jpg")

	out, err := run(t, "crop", in, "--x", "60", "--y", "30", "--width", "200", "--height", "180", "-o", dst)
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	if !strings.Contains(out, "200x180") {
		t.Errorf("Expected 200x180 in %q", out)
	}

	if _, err := run(t, "crop", in, "--x", "310", "--width", "50", "--height", "50", "-o", dst); err == nil {
		t.Error("Expected a crop below the minimum size to fail")
	}
	if _, err := run(t, "crop", in, "-o", dst); err == nil {
		t.Error("Expected missing --width/--height to fail")
	}
}

func TestBatchCommand(t *testing.T) {
	in := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "normalized")
	writeSheet(t, filepath.Join(in, "a.png"))
	writeSheet(t, filepath.Join(in, "b.png"))
	os.WriteFile(filepath.Join(in, "notes.txt"), []byte("skip me"), 0o644)
	os.WriteFile(filepath.Join(in, "._a.png"), []byte("resource fork"), 0o644)

	out, err := run(t, "batch", in, "-o", outDir, "--workers", "2")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Errorf("Expected 2 result lines, got %d: %q", lines, out)
	}
	for _, name := range []string{"a.jpg", "b.jpg"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}

	os.WriteFile(filepath.Join(in, "broken.png"), []byte("not an image"), 0o644)
	if _, err := run(t, "batch", in, "-o", outDir); err == nil || !strings.Contains(err.Error(), "1 of 3") {
		t.Errorf("Expected one failure out of three, got %v", err)
	}

	if _, err := run(t, "batch", in, "-o", in); err == nil {
		t.Error("Expected same input and output directory to fail")
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	p1, p2 := filepath.Join(dir, "p1.png"), filepath.Join(dir, "p2.png")
	writeSheet(t, p1)
	writeSheet(t, p2)

	out, err := run(t, "export", p1, p2, "--roll", "2301", "--subject-code", "CS101", "--subject-name", "Programming", "-o", dir, "--dpi", "200")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	pdfPath := filepath.Join(dir, "Copy_2301_CS101.pdf")
	if !strings.Contains(out, "2 pages") {
		t.Errorf("Expected 2 pages in %q", out)
	}
	data, err := os.ReadFile(pdfPath)
	if err != nil || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("Expected a PDF at %s, err %v", pdfPath, err)
	}

	raw := filepath.Join(dir, "raw.pdf")
	if _, err := run(t, "export", p1, "--roll", "2301", "--raw", "-o", raw); err != nil {
		t.Fatalf("raw export: %v", err)
	}

	if _, err := run(t, "export", p1); err == nil {
		t.Error("Expected missing --roll to fail")
	}
}

func TestNormalizeCommand_CameraURL(t *testing.T) {
	dir := t.TempDir()
	sheet := filepath.Join(dir, "sheet.png")
	writeSheet(t, sheet)
	data, _ := os.ReadFile(sheet)

	camera := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shot.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer camera.Close()

	dst := filepath.Join(dir, "camera.jpg")
	if _, err := run(t, "normalize", camera.URL+"/shot.jpg", "-o", dst); err != nil {
		t.Fatalf("normalize from camera: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("Expected %s: %v", dst, err)
	}

	if _, err := run(t, "normalize", camera.URL+"/missing", "-o", dst); err == nil {
		t.Error("Expected a missing snapshot endpoint to fail")
	}
}

func TestDefaultOutput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"scans/p1.png", "scans/p1_normalized.jpg"},
		{"http://10.0.0.5:8080/shot.jpg?ts=1", "shot_normalized.jpg"},
		{"http://10.0.0.5:8080/", "snapshot_normalized.jpg"},
	}
	for _, tt := range tests {
		if got := defaultOutput(tt.in); got != tt.want {
			t.Errorf("defaultOutput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
