package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "go-exam-scanner/internal/errors"
	"go-exam-scanner/internal/tracker"

	"github.com/google/go-cmp/cmp"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	c, err := NewClient("http://records.example.com/api/", time.Second)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if got := c.BaseURL(); got != "http://records.example.com/api" {
		t.Errorf("BaseURL() = %q", got)
	}
}

func TestNewClient_RejectsInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "http://user:pw@example.com"} {
		if _, err := NewClient(raw, time.Second); err == nil {
			t.Errorf("Expected %q to be rejected", raw)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType apperrors.ErrorType
		wantMsg  string
	}{
		{"not found", http.StatusNotFound, `{"message":"Student not found"}`, apperrors.ErrorTypeNotFound, "Student not found"},
		{"server error", http.StatusInternalServerError, `{"message":"db down"}`, apperrors.ErrorTypeServer, "db down"},
		{"bad gateway without body", http.StatusBadGateway, ``, apperrors.ErrorTypeServer, "Bad Gateway"},
		{"bad request", http.StatusBadRequest, `{"message":"Invalid status"}`, apperrors.ErrorTypeValidation, "Invalid status"},
		{"conflict with error field", http.StatusConflict, `{"error":"already exists"}`, apperrors.ErrorTypeValidation, "already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			err := c.DeleteStudent(context.Background(), "s1")
			appErr, ok := apperrors.As(err)
			if !ok {
				t.Fatalf("Expected AppError, got %v", err)
			}
			if appErr.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, appErr.Type)
			}
			if appErr.Message != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, appErr.Message)
			}
		})
	}
}

func TestErrorMapping_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	srv.Close()

	_, err = c.Health(context.Background())
	if !apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		t.Errorf("Expected network error, got %v", err)
	}
}

func TestListStudents(t *testing.T) {
	scan := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	bodies := map[string]string{
		"wrapped": `{"students":[{"_id":"a1","rollNumber":"2301","subjectCode":"CS101","subjectName":"Programming",
			"status":"Present","isScanned":true,"scannedPages":["p1","p2"],"scanTime":"2025-03-01T09:30:00Z",
			"pdfPath":"uploads/Copy_2301_CS101.pdf","pdfSize":1234}]}`,
		"bare": `[{"id":"a1","rollNumber":"2301","subjectCode":"CS101","subjectName":"Programming",
			"status":"present","isScanned":true,"scannedPages":2,"scanTime":"2025-03-01T09:30:00Z",
			"pdfPath":"uploads/Copy_2301_CS101.pdf","pdfSize":1234}]`,
	}

	want := tracker.Student{
		Identity: tracker.PersistedStudent{
			ID:  "a1",
			PDF: &tracker.PDFInfo{Path: "uploads/Copy_2301_CS101.pdf", Size: 1234},
		},
		RollNumber:   "2301",
		SubjectCode:  "CS101",
		SubjectName:  "Programming",
		Status:       tracker.StatusPresent,
		ScannedPages: 2,
		Scanned:      true,
		ScanTime:     scan,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/api/students" {
					t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
				}
				io.WriteString(w, body)
			})

			students, err := c.ListStudents(context.Background())
			if err != nil {
				t.Fatalf("ListStudents failed: %v", err)
			}
			if len(students) != 1 {
				t.Fatalf("Expected 1 student, got %d", len(students))
			}
			if diff := cmp.Diff(want, students[0].Student()); diff != "" {
				t.Errorf("Student mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRemoteStudent_UnknownStatusIsPending(t *testing.T) {
	st := RemoteStudent{PlainID: "x", Status: "Graduated"}.Student()
	if st.Status != tracker.StatusPending {
		t.Errorf("Expected Pending, got %s", st.Status)
	}
	if st.PDF() != nil {
		t.Error("Expected no PDF info")
	}
}

func TestUpdateStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/students/s1/status" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if diff := cmp.Diff(map[string]string{"status": "Absent", "remark": "sick"}, body); diff != "" {
			t.Errorf("Body mismatch (-want +got):\n%s", diff)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := c.UpdateStatus(context.Background(), "s1", tracker.StatusAbsent, "sick"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
}

func TestUploadScans(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload/scan/s1" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		files := r.MultipartForm.File["scans"]
		if len(files) != 2 {
			t.Fatalf("Expected 2 scans, got %d", len(files))
		}
		if files[0].Filename != "page_1.jpg" || files[1].Filename != "back.jpg" {
			t.Errorf("Unexpected filenames %q %q", files[0].Filename, files[1].Filename)
		}
		if ct := files[0].Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("Unexpected part content type %q", ct)
		}
		io.WriteString(w, `{"message":"Scans uploaded","student":{"_id":"s1","isScanned":true,"scannedPages":2}}`)
	})

	res, err := c.UploadScans(context.Background(), "s1", []ScanFile{
		{Data: []byte{0xff, 0xd8, 0x01}},
		{Name: "back.jpg", Data: []byte{0xff, 0xd8, 0x02}},
	})
	if err != nil {
		t.Fatalf("UploadScans failed: %v", err)
	}
	if res.Message != "Scans uploaded" || res.Student == nil || res.Student.ScannedPages != 2 {
		t.Errorf("Unexpected result %+v", res)
	}

	if _, err := c.UploadScans(context.Background(), "s1", nil); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error for empty upload, got %v", err)
	}
}

func TestStatsAndHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/students/stats/summary":
			io.WriteString(w, `{"total":10,"scanned":4,"absent":1,"present":5,"pending":4}`)
		case "/api/health":
			io.WriteString(w, `{"status":"OK"}`)
		default:
			http.NotFound(w, r)
		}
	})

	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if diff := cmp.Diff(Stats{Total: 10, Scanned: 4, Absent: 1, Present: 5, Pending: 4}, stats); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}

	status, err := c.Health(context.Background())
	if err != nil || status != "OK" {
		t.Errorf("Unexpected health %q, %v", status, err)
	}
}

func TestMalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"students": 12}`)
	})
	if _, err := c.ListStudents(context.Background()); !apperrors.IsType(err, apperrors.ErrorTypeServer) {
		t.Errorf("Expected server error, got %v", err)
	}
}
