package routes_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/avergin/sessionguard/internal/infra/config"
	httproutes "github.com/avergin/sessionguard/internal/transport/http/routes"
)

func newTestEngine(t *testing.T, deps httproutes.Dependencies) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	if deps.Config == nil {
		deps.Config = &config.AppConfig{App: config.AppSettings{Env: "test"}}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return httproutes.Register(deps)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestEngine(t, httproutes.Dependencies{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestEngine(t, httproutes.Dependencies{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

type failingCache struct{}

func (failingCache) HealthCheck(context.Context) error {
	return errors.New("connection refused")
}

func TestReadyzReportsFailingDependency(t *testing.T) {
	r := newTestEngine(t, httproutes.Dependencies{Cache: failingCache{}})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/readyz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}

func TestReadyzWithoutDependencies(t *testing.T) {
	r := newTestEngine(t, httproutes.Dependencies{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/readyz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}
