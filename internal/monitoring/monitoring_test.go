package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := NewMetrics()

	router := gin.New()
	router.Use(metrics.Middleware())
	router.GET("/api/issues/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/issues/1", "/api/issues/2", "/ok", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	snap := metrics.Snapshot()
	if snap.RequestCount != 4 {
		t.Errorf("Expected 4 requests, got %d", snap.RequestCount)
	}
	if snap.ErrorCount != 3 {
		t.Errorf("Expected 3 errors, got %d", snap.ErrorCount)
	}
	if snap.ActiveRequests != 0 {
		t.Errorf("Expected no active requests, got %d", snap.ActiveRequests)
	}
	if snap.Endpoints["GET /api/issues/:id"] != 2 {
		t.Errorf("Expected route template to be counted twice, got %v", snap.Endpoints)
	}
	if snap.Endpoints["GET unmatched"] != 1 {
		t.Errorf("Expected one unmatched request, got %v", snap.Endpoints)
	}
	if snap.StatusCodes["404"] != 3 || snap.StatusCodes["200"] != 1 {
		t.Errorf("Unexpected status codes %v", snap.StatusCodes)
	}
}

func TestMetricsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := NewMetrics()

	router := gin.New()
	router.GET("/metrics", metrics.Handler(map[string]func() interface{}{
		"cache": func() interface{} { return map[string]int{"hits": 3} },
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	for _, key := range []string{"application", "system", "timestamp", "cache"} {
		if _, ok := body[key]; !ok {
			t.Errorf("Expected key %q in metrics response", key)
		}
	}
}

func TestHealthChecker(t *testing.T) {
	gin.SetMode(gin.TestMode)
	checker := NewHealthChecker(time.Second)

	failing := false
	checker.Register("database", func(ctx context.Context) error { return nil })
	checker.Register("cache", func(ctx context.Context) error {
		if failing {
			return errors.New("connection refused")
		}
		return nil
	})

	router := gin.New()
	router.GET("/health", checker.HealthHandler())
	router.GET("/ready", checker.ReadinessHandler())
	router.GET("/live", checker.LivenessHandler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	failing = true
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var body struct {
		Status string        `json:"status"`
		Checks []HealthCheck `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy, got %s", body.Status)
	}
	if len(body.Checks) != 2 || body.Checks[0].Name != "cache" || body.Checks[0].Message != "connection refused" {
		t.Errorf("Unexpected checks %+v", body.Checks)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected readiness to fail, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected liveness to pass, got %d", w.Code)
	}
}

func TestHealthChecker_Timeout(t *testing.T) {
	checker := NewHealthChecker(10 * time.Millisecond)
	checker.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	results := checker.Run(context.Background())
	if len(results) != 1 || results[0].Status != StatusUnhealthy {
		t.Errorf("Expected slow check to time out, got %+v", results)
	}
}
