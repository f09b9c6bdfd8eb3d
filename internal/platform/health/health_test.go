package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SlpAus/contact-form-backend/internal/platform/database"
	"github.com/SlpAus/contact-form-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStartupProbeFailureDoesNotStopChecker(t *testing.T) {
	var calls atomic.Int32
	p := PingFunc(func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})
	status := database.NewStatus()
	m := lifecycle.NewManager("test")
	h, err := m.NewServiceHandle("health")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	go StartChecker(h, p, status, 5*time.Millisecond, nil)

	deadline := time.Now().Add(2 * time.Second)
	for !status.IsHealthy() {
		if time.Now().After(deadline) {
			t.Fatalf("checker never recovered after failed startup probe")
		}
		time.Sleep(2 * time.Millisecond)
	}

	m.Shutdown()
	if remaining := m.WaitWithTimeout(time.Second); len(remaining) != 0 {
		t.Fatalf("checker did not exit: %v", remaining)
	}
}

func TestStartupProbeOnly(t *testing.T) {
	status := database.NewStatus()
	m := lifecycle.NewManager("test")
	h, _ := m.NewServiceHandle("health")

	StartChecker(h, PingFunc(func(context.Context) error { return nil }), status, 0, nil)

	if !status.IsHealthy() {
		t.Fatalf("expected healthy after startup probe")
	}
	if remaining := m.WaitWithTimeout(time.Second); len(remaining) != 0 {
		t.Fatalf("handle not closed: %v", remaining)
	}
}

func TestReadyHookRetriesUntilItSucceeds(t *testing.T) {
	var pings, readyCalls atomic.Int32
	p := PingFunc(func(ctx context.Context) error {
		// 前两次探测失败
		if pings.Add(1) <= 2 {
			return errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
		}
		return nil
	})
	onReady := func(ctx context.Context) error {
		// 第一次初始化失败，应在下一次成功探测后重试
		if readyCalls.Add(1) == 1 {
			return errors.New("migrate: relation lock timeout")
		}
		return nil
	}

	status := database.NewStatus()
	m := lifecycle.NewManager("test")
	h, err := m.NewServiceHandle("health")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	go StartChecker(h, p, status, 2*time.Millisecond, onReady)

	deadline := time.Now().Add(2 * time.Second)
	for pings.Load() < 8 {
		if time.Now().After(deadline) {
			t.Fatalf("checker stalled after %d pings", pings.Load())
		}
		time.Sleep(time.Millisecond)
	}
	m.Shutdown()
	if remaining := m.WaitWithTimeout(time.Second); len(remaining) != 0 {
		t.Fatalf("checker did not exit: %v", remaining)
	}

	if got := readyCalls.Load(); got != 2 {
		t.Fatalf("expected ready hook to run until it succeeds (2 calls), got %d", got)
	}
}

func TestReadyHookSkippedWhileDatabaseDown(t *testing.T) {
	var readyCalls atomic.Int32
	status := database.NewStatus()
	m := lifecycle.NewManager("test")
	h, _ := m.NewServiceHandle("health")

	StartChecker(h, PingFunc(func(context.Context) error { return errors.New("down") }), status, 0,
		func(context.Context) error { readyCalls.Add(1); return nil })

	if readyCalls.Load() != 0 {
		t.Fatal("ready hook must not run before a successful probe")
	}
	if snap := status.Snapshot(); !snap.Checked || snap.Healthy {
		t.Fatalf("expected status down, got %+v", snap)
	}
}

func TestHandler(t *testing.T) {
	status := database.NewStatus()
	r := gin.New()
	r.GET("/health", Handler(status))

	get := func() (int, map[string]string) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return w.Code, body
	}

	if code, body := get(); code != http.StatusServiceUnavailable || body["database"] != "unknown" {
		t.Fatalf("unchecked: got %d %v", code, body)
	}

	status.Update(errors.New("timeout"))
	if code, body := get(); code != http.StatusServiceUnavailable || body["error"] != "timeout" {
		t.Fatalf("down: got %d %v", code, body)
	}

	status.Update(nil)
	if code, body := get(); code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("up: got %d %v", code, body)
	}
}
