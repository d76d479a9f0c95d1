package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dbehnke/afhds3d/pkg/logger"
)

// PrometheusConfig holds Prometheus server configuration.
type PrometheusConfig struct {
	Enabled bool
	Port    int
	Path    string
}

// PrometheusHandler renders a Collector's counters in Prometheus text
// exposition format.
type PrometheusHandler struct {
	collector *Collector
}

// NewPrometheusHandler creates a new Prometheus handler.
func NewPrometheusHandler(collector *Collector) *PrometheusHandler {
	return &PrometheusHandler{collector: collector}
}

// ServeHTTP handles HTTP requests for metrics.
func (h *PrometheusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	snap := h.collector.Snapshot()
	var output strings.Builder

	output.WriteString("# HELP afhds3_frames_sent_total Total outbound frames flushed to the transport\n")
	output.WriteString("# TYPE afhds3_frames_sent_total counter\n")
	output.WriteString(fmt.Sprintf("afhds3_frames_sent_total %d\n", snap.FramesSent))

	output.WriteString("# HELP afhds3_frames_received_total Total inbound frames that passed CRC and were dispatched\n")
	output.WriteString("# TYPE afhds3_frames_received_total counter\n")
	output.WriteString(fmt.Sprintf("afhds3_frames_received_total %d\n", snap.FramesReceived))

	output.WriteString("# HELP afhds3_crc_failures_total Frames dropped for a bad checksum\n")
	output.WriteString("# TYPE afhds3_crc_failures_total counter\n")
	output.WriteString(fmt.Sprintf("afhds3_crc_failures_total %d\n", snap.CRCFailures))

	output.WriteString("# HELP afhds3_protocol_timeouts_total Requests that exhausted MAX_RETRIES without a response\n")
	output.WriteString("# TYPE afhds3_protocol_timeouts_total counter\n")
	output.WriteString(fmt.Sprintf("afhds3_protocol_timeouts_total %d\n", snap.ProtocolTimeouts))

	output.WriteString("# HELP afhds3_queue_drops_total Commands dropped because the command queue was full\n")
	output.WriteString("# TYPE afhds3_queue_drops_total counter\n")
	output.WriteString(fmt.Sprintf("afhds3_queue_drops_total %d\n", snap.QueueDrops))

	output.WriteString("# HELP afhds3_ack_dedup_hits_total Duplicate ACK enqueues skipped at the queue head\n")
	output.WriteString("# TYPE afhds3_ack_dedup_hits_total counter\n")
	output.WriteString(fmt.Sprintf("afhds3_ack_dedup_hits_total %d\n", snap.AckDedupHits))

	output.WriteString("# HELP afhds3_telemetry_records_total Telemetry records dispatched, by sensor type\n")
	output.WriteString("# TYPE afhds3_telemetry_records_total counter\n")
	for sensorType, count := range snap.TelemetryByType {
		output.WriteString(fmt.Sprintf("afhds3_telemetry_records_total{sensor_type=\"%#02x\"} %d\n", sensorType, count))
	}

	output.WriteString("# HELP afhds3_module_state Current module state, one time series per slot pinned to 1\n")
	output.WriteString("# TYPE afhds3_module_state gauge\n")
	for slot, state := range snap.ModuleState {
		output.WriteString(fmt.Sprintf("afhds3_module_state{slot=\"%d\",state=\"%s\"} 1\n", slot, state))
	}

	w.Write([]byte(output.String()))
}

// PrometheusServer is an HTTP server exposing a Collector's metrics.
type PrometheusServer struct {
	config    PrometheusConfig
	collector *Collector
	log       *logger.Logger
	server    *http.Server
}

// NewPrometheusServer creates a new Prometheus metrics server.
func NewPrometheusServer(config PrometheusConfig, collector *Collector, log *logger.Logger) *PrometheusServer {
	if log == nil {
		log = logger.New(logger.Config{Level: "info", Format: "text"})
	}

	return &PrometheusServer{
		config:    config,
		collector: collector,
		log:       log.WithComponent("metrics"),
	}
}

// Start starts the Prometheus metrics server; it blocks until ctx is
// cancelled or the server fails.
func (s *PrometheusServer) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("Prometheus metrics server disabled")
		return nil
	}

	handler := NewPrometheusHandler(s.collector)
	mux := http.NewServeMux()
	mux.Handle(s.config.Path, handler)

	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	actualPort := listener.Addr().(*net.TCPAddr).Port

	s.server = &http.Server{Handler: mux}

	s.log.Info("Starting Prometheus metrics server",
		logger.Int("port", actualPort),
		logger.String("path", s.config.Path))

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down Prometheus metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown error: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Stop stops the Prometheus metrics server.
func (s *PrometheusServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}
}
