package statusweb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dbehnke/afhds3d/pkg/driver"
	"github.com/dbehnke/afhds3d/pkg/logger"
)

func TestServerDisabledStartReturnsImmediately(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	reg := driver.NewRegistry()
	srv := NewServer(Config{Enabled: false}, reg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("expected nil error for disabled server, got %v", err)
	}
}

func TestServerHealthEndpoint(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	reg := driver.NewRegistry()
	srv := NewServer(Config{Enabled: true}, reg, log)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestServerStatusEndpointEmptyRegistry(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	reg := driver.NewRegistry()
	srv := NewServer(Config{Enabled: true}, reg, log)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	srv.handleStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}
