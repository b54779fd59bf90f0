package main

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

/* ─── Pure helper tests ──────────────────────────────────────────────── */

// TestReportContentType verifies the upload allow-list: known extensions map
// to their stored content type regardless of case, everything else is
// rejected.
func TestReportContentType(t *testing.T) {
	cases := []struct {
		fileName string
		wantType string
		wantOK   bool
	}{
		{"scan.pdf", "application/pdf", true},
		{"SCAN.PDF", "application/pdf", true},
		{"photo.jpg", "image/jpeg", true},
		{"photo.jpeg", "image/jpeg", true},
		{"chart.png", "image/png", true},
		{"labs.txt", "text/plain", true},
		{"report.docx", "", false},
		{"run.exe", "", false},
		{"noextension", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		ct, ok := reportContentType(tc.fileName)
		if ok != tc.wantOK {
			t.Errorf("reportContentType(%q) ok = %v, want %v", tc.fileName, ok, tc.wantOK)
			continue
		}
		if ok && ct != tc.wantType {
			t.Errorf("reportContentType(%q) = %q, want %q", tc.fileName, ct, tc.wantType)
		}
	}
}

// TestReportObjectKey verifies the key shape: patient-scoped prefix, lowered
// extension, and a fresh uuid per call.
func TestReportObjectKey(t *testing.T) {
	key := reportObjectKey(7, "Chest X-Ray.PDF")
	if !strings.HasPrefix(key, "reports/7/") {
		t.Errorf("key = %q, want reports/7/ prefix", key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Errorf("key = %q, want lowercased .pdf suffix", key)
	}
	if strings.Contains(key, "Chest") {
		t.Errorf("key = %q, must not leak the original file name", key)
	}

	if again := reportObjectKey(7, "Chest X-Ray.PDF"); again == key {
		t.Error("expected a unique key per call, got a repeat")
	}
}

/* ─── Upload validation tests ────────────────────────────────────────── */

// setupUploadTest creates a Gin engine with the upload route behind a stub
// identity. The handler's validation runs before any storage or DB access, so
// these paths need neither.
func setupUploadTest(role string, maxUploadBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := Handler{cfg: appConfig{MaxUploadBytes: maxUploadBytes}}

	router := gin.New()
	router.POST("/api/reports/upload", func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Set("role", role)
		c.Next()
	}, h.uploadReport)
	return router
}

// doUploadRequest sends a multipart upload with one file field.
func doUploadRequest(router *gin.Engine, fieldName, fileName string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile(fieldName, fileName)
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest("POST", "/api/reports/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadReport_DoctorForbidden(t *testing.T) {
	router := setupUploadTest(roleDoctor, 10<<20)

	w := doUploadRequest(router, "file", "scan.pdf", []byte("%PDF-1.4"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadReport_MissingFile(t *testing.T) {
	router := setupUploadTest(rolePatient, 10<<20)

	w := doUploadRequest(router, "wrong_field", "scan.pdf", []byte("%PDF-1.4"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadReport_DisallowedExtension(t *testing.T) {
	router := setupUploadTest(rolePatient, 10<<20)

	w := doUploadRequest(router, "file", "malware.exe", []byte("MZ"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadReport_OversizeRejected(t *testing.T) {
	// 16-byte limit; the payload is larger.
	router := setupUploadTest(rolePatient, 16)

	w := doUploadRequest(router, "file", "scan.pdf", bytes.Repeat([]byte("x"), 64))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

/* ─── Report id validation ───────────────────────────────────────────── */

func TestReportRoutes_InvalidIDRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := Handler{}

	router := gin.New()
	router.GET("/api/reports/:id/signed-url", func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Set("role", rolePatient)
		c.Next()
	}, h.getReportSignedURL)

	// Not a uuid — rejected before any lookup happens.
	req := httptest.NewRequest("GET", "/api/reports/12345/signed-url", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
