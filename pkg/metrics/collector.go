// Package metrics collects driver counters and exposes them as a
// Prometheus text endpoint.
package metrics

import "sync"

// Collector tracks link-level counters for one or more driver instances.
// The counters are summed across all instances that share the collector;
// only the module state is kept per module slot (internal=0, external=1).
type Collector struct {
	mu sync.RWMutex

	framesSent       uint64
	framesReceived   uint64
	crcFailures      uint64
	protocolTimeouts uint64
	queueDrops       uint64
	ackDedupHits     uint64
	telemetryByType  map[byte]uint64
	moduleState      map[int]string
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		telemetryByType: make(map[byte]uint64),
		moduleState:     make(map[int]string),
	}
}

// FrameSent records a successfully built and flushed outbound frame.
func (c *Collector) FrameSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.framesSent++
}

// FrameReceived records a frame that passed CRC and was dispatched.
func (c *Collector) FrameReceived() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.framesReceived++
}

// CRCFailure records a frame dropped for a bad checksum.
func (c *Collector) CRCFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.crcFailures++
}

// ProtocolTimeout records a request that exhausted MAX_RETRIES without a
// response.
func (c *Collector) ProtocolTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.protocolTimeouts++
}

// QueueDrop records a command dropped because the command queue was full.
func (c *Collector) QueueDrop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queueDrops++
}

// AckDedupHit records a duplicate ACK enqueue skipped because an identical
// ACK was already at the queue head.
func (c *Collector) AckDedupHit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ackDedupHits++
}

// TelemetryRecord records one telemetry record dispatched for the given
// sensor type byte.
func (c *Collector) TelemetryRecord(sensorType byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.telemetryByType[sensorType]++
}

// SetModuleState records the current human-readable module state string
// for a module slot, for the gauge exposed per instance.
func (c *Collector) SetModuleState(slot int, state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moduleState[slot] = state
}

// Snapshot is a point-in-time, lock-free copy of the collector's counters.
type Snapshot struct {
	FramesSent       uint64
	FramesReceived   uint64
	CRCFailures      uint64
	ProtocolTimeouts uint64
	QueueDrops       uint64
	AckDedupHits     uint64
	TelemetryByType  map[byte]uint64
	ModuleState      map[int]string
}

// Snapshot returns a consistent copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	telemetry := make(map[byte]uint64, len(c.telemetryByType))
	for k, v := range c.telemetryByType {
		telemetry[k] = v
	}
	states := make(map[int]string, len(c.moduleState))
	for k, v := range c.moduleState {
		states[k] = v
	}

	return Snapshot{
		FramesSent:       c.framesSent,
		FramesReceived:   c.framesReceived,
		CRCFailures:      c.crcFailures,
		ProtocolTimeouts: c.protocolTimeouts,
		QueueDrops:       c.queueDrops,
		AckDedupHits:     c.ackDedupHits,
		TelemetryByType:  telemetry,
		ModuleState:      states,
	}
}

// Reset zeroes all counters; useful for tests.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.framesSent = 0
	c.framesReceived = 0
	c.crcFailures = 0
	c.protocolTimeouts = 0
	c.queueDrops = 0
	c.ackDedupHits = 0
	c.telemetryByType = make(map[byte]uint64)
	c.moduleState = make(map[int]string)
}
