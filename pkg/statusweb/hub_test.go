package statusweb

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dbehnke/afhds3d/pkg/logger"
)

func TestNewHub(t *testing.T) {
	log := logger.New(logger.Config{Level: "info"})
	hub := NewHub(log)
	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
}

func TestHubRun(t *testing.T) {
	log := logger.New(logger.Config{Level: "info"})
	hub := NewHub(log)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	go hub.Run(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)
}

func TestHubBroadcastWithNoClients(t *testing.T) {
	log := logger.New(logger.Config{Level: "info"})
	hub := NewHub(log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go hub.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastModuleState(0, "READY")
	hub.BroadcastTelemetry(0, 0xAA, 0x01, []byte{1, 2})
	time.Sleep(50 * time.Millisecond)
}

func TestHubHandler(t *testing.T) {
	log := logger.New(logger.Config{Level: "info"})
	hub := NewHub(log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go hub.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	handler := hub.Handler()
	server := httptest.NewServer(handler)
	defer server.Close()

	_ = "ws" + strings.TrimPrefix(server.URL, "http")
	if handler == nil {
		t.Fatal("handler is nil")
	}
}

func TestEventMarshal(t *testing.T) {
	event := Event{
		Type:      "module_state",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"slot":  0,
			"state": "READY",
		},
	}

	data, err := event.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), "module_state") {
		t.Error("marshaled data missing event type")
	}
}
