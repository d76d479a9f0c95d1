package statusweb

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dbehnke/afhds3d/pkg/driver"
	"github.com/dbehnke/afhds3d/pkg/logger"
)

// Config holds status server configuration.
type Config struct {
	Enabled bool
	Host    string
	Port    int
}

// Server is the status monitoring HTTP + WebSocket server.
type Server struct {
	config   Config
	log      *logger.Logger
	registry *driver.Registry
	hub      *Hub
	server   *http.Server
}

// NewServer creates a status server that reads driver snapshots from
// registry for its /api/status endpoint and exposes hub-fed events over
// /ws.
func NewServer(cfg Config, registry *driver.Registry, log *logger.Logger) *Server {
	if log == nil {
		log = logger.New(logger.Config{Level: "info", Format: "text"})
	}
	return &Server{
		config:   cfg,
		log:      log.WithComponent("statusweb"),
		registry: registry,
		hub:      NewHub(log),
	}
}

// Hub returns the server's broadcast hub, for the caller to wire as a
// telemetry sink or module-state-change listener.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start runs the status server; it blocks until ctx is cancelled or the
// server fails to serve.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("status server disabled")
		return nil
	}

	go s.hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.Handle("/ws", s.hub.Handler())

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.server = &http.Server{Handler: mux}

	s.log.Info("starting status server", logger.String("addr", addr))

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down status server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("status server shutdown error: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Stop stops the status server.
func (s *Server) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	snapshots := make([]driver.Snapshot, 0, 2)
	for _, slot := range []int{driver.SlotInternal, driver.SlotExternal} {
		if d := s.registry.Get(slot); d != nil {
			snapshots = append(snapshots, d.Snapshot())
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"modules":      snapshots,
		"ws_clients":   s.hub.ClientCount(),
		"generated_at": time.Now(),
	})
}
