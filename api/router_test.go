package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/SlpAus/contact-form-backend/internal/platform/config"
	"github.com/SlpAus/contact-form-backend/internal/platform/database"
	"github.com/SlpAus/contact-form-backend/internal/platform/httpx"
	"github.com/SlpAus/contact-form-backend/internal/submission"
	"github.com/SlpAus/contact-form-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.DisableColor()
	logger.SetOutput(io.Discard, io.Discard)
	os.Exit(m.Run())
}

type nopUploader struct{}

func (nopUploader) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://bucket.s3.us-east-1.amazonaws.com/" + key, nil
}

type memRecorder struct {
	mu       sync.Mutex
	requests []string
	errors   []string
}

func (r *memRecorder) RecordRequest(endpoint string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, endpoint)
}

func (r *memRecorder) RecordError(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, label)
}

func newTestRouter(t *testing.T, limiter *httpx.IPRateLimiter) (*gin.Engine, *memRecorder, *database.Status) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := submission.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	rec := &memRecorder{}
	status := database.NewStatus()
	svc := submission.NewService(submission.NewRepository(db), nopUploader{})
	router := NewRouter(Dependencies{
		Server: config.ServerConfig{
			Cors: config.CorsConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		},
		Submissions: submission.NewHandler(svc, rec, 5<<20),
		Metrics:     rec,
		DBStatus:    status,
		Limiter:     limiter,
	})
	return router, rec, status
}

func postContact(t *testing.T, r http.Handler, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.RemoteAddr = "192.0.2.1:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRootReturnsWelcomeText(t *testing.T) {
	r, rec, _ := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || w.Body.String() != WelcomeMessage {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("expected plain text, got %q", ct)
	}
	if w.Header().Get(httpx.RequestIDHeader) == "" {
		t.Fatal("expected a request id header")
	}
	if len(rec.requests) != 1 || rec.requests[0] != "/" {
		t.Fatalf("expected one request metric for /, got %v", rec.requests)
	}
}

func TestContactThenListEndToEnd(t *testing.T) {
	r, rec, _ := newTestRouter(t, nil)

	w := postContact(t, r, map[string]string{"name": "Jane", "email": "jane@x.com", "message": "hi"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Success  bool    `json:"success"`
		ID       uint    `json:"id"`
		ImageURL *string `json:"imageUrl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !created.Success || created.ID == 0 || created.ImageURL != nil {
		t.Fatalf("unexpected response %+v", created)
	}

	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, httptest.NewRequest(http.MethodGet, "/api/submissions", nil))
	var rows []submission.Submission
	if err := json.Unmarshal(lw.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != created.ID || rows[0].Name != "Jane" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	if len(rec.requests) != 2 || rec.requests[0] != "/api/contact" || rec.requests[1] != "/api/submissions" {
		t.Fatalf("unexpected request metrics %v", rec.requests)
	}
	if len(rec.errors) != 0 {
		t.Fatalf("unexpected error metrics %v", rec.errors)
	}
}

func TestHealthReflectsDatabaseStatus(t *testing.T) {
	r, _, status := newTestRouter(t, nil)

	get := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		return w.Code
	}
	if code := get(); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before first probe, got %d", code)
	}
	status.Update(nil)
	if code := get(); code != http.StatusOK {
		t.Fatalf("expected 200 after successful probe, got %d", code)
	}
}

func TestPanicIsRecoveredAndCounted(t *testing.T) {
	r, rec, _ := newTestRouter(t, nil)
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if len(rec.errors) != 1 || rec.errors[0] != "UnknownError" {
		t.Fatalf("expected one UnknownError metric, got %v", rec.errors)
	}
	if len(rec.requests) != 1 || rec.requests[0] != "/boom" {
		t.Fatalf("panicking request should still be timed, got %v", rec.requests)
	}
}

func TestCorsAllowsConfiguredOrigin(t *testing.T) {
	r, _, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected origin to be allowed, got %q", got)
	}
}

func TestContactRateLimit(t *testing.T) {
	r, _, _ := newTestRouter(t, httpx.NewIPRateLimiter(0.001, 1))

	fields := map[string]string{"name": "Jane", "email": "jane@x.com", "message": "hi"}
	if w := postContact(t, r, fields); w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}
	if w := postContact(t, r, fields); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w.Code)
	}

	// 列表接口不受限流影响
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/submissions", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list should not be limited, got %d", w.Code)
	}
}
