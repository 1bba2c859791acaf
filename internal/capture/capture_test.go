package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	apperrors "go-exam-scanner/internal/errors"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("Failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// withPHYs inserts a pHYs chunk right after IHDR.
func withPHYs(t *testing.T, data []byte, perMeter uint32) []byte {
	t.Helper()
	// signature (8) + IHDR length/type/data/crc (4+4+13+4)
	const ihdrEnd = 8 + 25
	payload := new(bytes.Buffer)
	binary.Write(payload, binary.BigEndian, perMeter)
	binary.Write(payload, binary.BigEndian, perMeter)
	payload.WriteByte(1)

	chunk := new(bytes.Buffer)
	binary.Write(chunk, binary.BigEndian, uint32(payload.Len()))
	typed := append([]byte("pHYs"), payload.Bytes()...)
	chunk.Write(typed)
	binary.Write(chunk, binary.BigEndian, crc32.ChecksumIEEE(typed))

	out := append([]byte{}, data[:ihdrEnd]...)
	out = append(out, chunk.Bytes()...)
	return append(out, data[ihdrEnd:]...)
}

// withExifDPI inserts an APP1 segment carrying XResolution/YResolution in
// inches right after the JPEG SOI marker.
func withExifDPI(t *testing.T, data []byte, dpi uint32) []byte {
	t.Helper()
	im := exifcommon.NewIfdMapping()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		t.Fatalf("Failed to load ifds: %v", err)
	}
	ib := exif.NewIfdBuilder(im, exif.NewTagIndex(), exifcommon.IfdStandardIfdIdentity, binary.BigEndian)
	res := []exifcommon.Rational{{Numerator: dpi, Denominator: 1}}
	for name, value := range map[string]interface{}{
		"XResolution":    res,
		"YResolution":    res,
		"ResolutionUnit": []uint16{2},
	} {
		if err := ib.AddStandardWithName(name, value); err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
	}
	raw, err := exif.NewIfdByteEncoder().EncodeToExif(ib)
	if err != nil {
		t.Fatalf("Failed to encode exif: %v", err)
	}

	payload := append([]byte("Exif\x00\x00"), raw...)
	segment := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(segment[2:], uint16(len(payload)+2))
	out := append([]byte{}, data[:2]...)
	out = append(out, segment...)
	out = append(out, payload...)
	return append(out, data[2:]...)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		max     int64
		want    string
		wantErr bool
	}{
		{"png", encodePNG(t, 4, 4), 0, "image/png", false},
		{"jpeg", encodeJPEG(t, 4, 4), 0, "image/jpeg", false},
		{"empty", nil, 0, "", true},
		{"text", []byte("roll number,subject code\n"), 0, "", true},
		{"too large", encodePNG(t, 4, 4), 10, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.data, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Validate() = %q, want %q", got, tt.want)
			}
			var vErr *ValidationError
			if tt.wantErr && !errors.As(err, &vErr) {
				t.Errorf("Expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestReadMetadata(t *testing.T) {
	plain := ReadMetadata(encodeJPEG(t, 8, 8))
	if plain != (Metadata{Orientation: 1}) {
		t.Errorf("Expected defaults for jpeg without exif, got %+v", plain)
	}

	meta := ReadMetadata(withPHYs(t, encodePNG(t, 8, 8), 11811))
	if meta.Orientation != 1 {
		t.Errorf("Expected orientation 1, got %d", meta.Orientation)
	}
	if meta.DPIX < 299.9 || meta.DPIX > 300.1 || meta.DPIY != meta.DPIX {
		t.Errorf("Expected ~300 dpi, got %+v", meta)
	}

	exifMeta := ReadMetadata(withExifDPI(t, encodeJPEG(t, 8, 8), 300))
	if exifMeta != (Metadata{Orientation: 1, DPIX: 300, DPIY: 300}) {
		t.Errorf("Expected 300 dpi from exif, got %+v", exifMeta)
	}
}

func TestMetadata_Oriented(t *testing.T) {
	tests := []struct {
		in   Metadata
		want Metadata
	}{
		{Metadata{Orientation: 1, DPIX: 300, DPIY: 200}, Metadata{Orientation: 1, DPIX: 300, DPIY: 200}},
		{Metadata{Orientation: 3, DPIX: 300, DPIY: 200}, Metadata{Orientation: 1, DPIX: 300, DPIY: 200}},
		{Metadata{Orientation: 6, DPIX: 300, DPIY: 200}, Metadata{Orientation: 1, DPIX: 200, DPIY: 300}},
		{Metadata{Orientation: 8}, Metadata{Orientation: 1}},
	}
	for _, tc := range tests {
		if got := tc.in.Oriented(); got != tc.want {
			t.Errorf("Oriented(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestPngDPI_Missing(t *testing.T) {
	if _, ok := pngDPI(encodePNG(t, 2, 2)); ok {
		t.Error("Expected no dpi without pHYs")
	}
	if _, ok := pngDPI([]byte("not a png")); ok {
		t.Error("Expected no dpi for non-png data")
	}
}

func TestBytesSource(t *testing.T) {
	frame, err := BytesSource{Data: encodePNG(t, 3, 3), Name: "upload"}.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if frame.ContentType != "image/png" || frame.Source != "upload" || frame.AcquiredAt.IsZero() {
		t.Errorf("Unexpected frame %+v", frame)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (BytesSource{Data: encodePNG(t, 3, 3)}).Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sheet.png")
	if err := os.WriteFile(path, encodePNG(t, 5, 5), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	frame, err := FileSource{Path: path}.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if frame.Source != path {
		t.Errorf("Expected source %s, got %s", path, frame.Source)
	}

	if _, err := (FileSource{Path: path, MaxSize: 8}).Acquire(context.Background()); err == nil {
		t.Error("Expected size limit to be enforced")
	}
	if _, err := (FileSource{Path: filepath.Join(dir, "missing.png")}).Acquire(context.Background()); err == nil {
		t.Error("Expected missing file to fail")
	}
}

func TestURLSource(t *testing.T) {
	shot := encodeJPEG(t, 6, 6)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shot.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write(shot)
		case "/broken":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	src, err := NewURLSource(server.URL+"/shot.jpg", URLSourceOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	frame, err := src.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bytes.Equal(frame.Data, shot) || frame.ContentType != "image/jpeg" {
		t.Errorf("Unexpected frame: %s, %d bytes", frame.ContentType, len(frame.Data))
	}

	tests := []struct {
		path string
		typ  apperrors.ErrorType
	}{
		{"/missing", apperrors.ErrorTypeNotFound},
		{"/broken", apperrors.ErrorTypeServer},
		{"/forbidden", apperrors.ErrorTypeValidation},
	}
	for _, tt := range tests {
		src, _ := NewURLSource(server.URL+tt.path, URLSourceOptions{})
		_, err := src.Acquire(context.Background())
		if !apperrors.IsType(err, tt.typ) {
			t.Errorf("%s: expected %s error, got %v", tt.path, tt.typ, err)
		}
	}
}

func TestURLSource_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	src, err := NewURLSource(url+"/shot.jpg", URLSourceOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := src.Acquire(context.Background()); !apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		t.Errorf("Expected network error, got %v", err)
	}
}

func TestNewURLSource_InvalidURL(t *testing.T) {
	if _, err := NewURLSource("ftp://camera.local/shot", URLSourceOptions{}); err == nil {
		t.Error("Expected invalid scheme to be rejected")
	}
}
