// Package driver implements the AFHDS3 protocol core: one Driver instance
// per module slot (internal or external), orchestrating the byte codec,
// frame builder/parser, command queue and lifecycle state machine behind
// the four operations a mixer scheduler needs: Init, Tick, Flush, GetByte.
package driver

import (
	"sync"

	"github.com/dbehnke/afhds3d/pkg/logger"
	"github.com/dbehnke/afhds3d/pkg/metrics"
	"github.com/dbehnke/afhds3d/pkg/protocol"
	"github.com/dbehnke/afhds3d/pkg/telemetry"
	"github.com/dbehnke/afhds3d/pkg/transport"
)

// UserMode is the host-requested operating mode, independent of the
// module's reported lifecycle state.
type UserMode byte

const (
	UserModeNormal UserMode = iota
	UserModeBind
)

// Model is the borrowed view of model/global configuration the driver
// consults at init and on every tick, plus the one setter it uses to push
// state back (requested mode reverting to NORMAL on leaving BIND). Live
// channel/failsafe values are only read. Implementations must be safe for
// concurrent access from whatever goroutine calls Tick.
type Model interface {
	PhyMode() protocol.PhyMode
	EMIStandard() byte
	IsTwoWay() bool
	TelemetryEnabled() bool
	FailsafeMode() protocol.FailsafeMode
	ChannelsStart() int
	ChannelsCount() int
	RequestedMode() UserMode
	SetRequestedMode(mode UserMode)
	ChannelValue(channel int) int16
	FailsafeValue(channel int) int16
}

// Driver is one protocol-core instance bound to a module slot.
type Driver struct {
	mu sync.RWMutex // guards the fields read by Snapshot from another goroutine

	slot  int
	model Model
	sink  transport.Sink
	src   transport.Source
	telem telemetry.Sink
	log   *logger.Logger
	mtr   *metrics.Collector

	seq         byte
	repeatCount int
	opState     protocol.OperationState
	moduleState protocol.ModuleState

	accum *protocol.FrameAccumulator
	queue protocol.CommandQueue
	config  protocol.RawConfig
	version protocol.ModuleVersion

	tickCounter  int
	rotationStep int

	lastCommand Command // CmdModeRun once a run-sequence is issued, cleared by the next MODULE_MODE reply
}

// Command identifies an in-flight request so the parser knows how to react
// to its response without re-deriving intent from the CMD byte alone
// (mirrors "previous request was RUN" in the state machine's prose).
type Command byte

const (
	CmdNone Command = iota
	CmdModeRun
	CmdModeBind
	CmdModeStandby
)

// New constructs a Driver for the given module slot. Sink/Source bind the
// transport; model is the borrowed configuration view; telem receives
// decoded telemetry records. log and mtr may be nil (a no-op logger is not
// substituted — callers are expected to always provide one in production,
// but nil is tolerated so unit tests can omit them).
func New(slot int, model Model, sink transport.Sink, src transport.Source, telem telemetry.Sink, log *logger.Logger, mtr *metrics.Collector) *Driver {
	d := &Driver{
		slot:  slot,
		model: model,
		sink:  sink,
		src:   src,
		telem: telem,
		log:   log,
		mtr:   mtr,
		accum: protocol.NewFrameAccumulator(),
	}
	d.Init()
	return d
}

// Init (re)initialises all transient protocol state, keeping the module
// slot and collaborators. Mirrors clearFrameData(): sequence counter resets
// to 1, retry/queue/escape state clears, module state regresses to
// NOT_READY.
func (d *Driver) Init() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq = 1
	d.repeatCount = 0
	d.opState = protocol.OpUnknown
	d.moduleState = protocol.StateNotReady
	if d.accum == nil {
		d.accum = protocol.NewFrameAccumulator()
	} else {
		d.accum.Reset()
	}
	d.queue.Clear()
	d.config = protocol.RawConfig{}
	d.version = protocol.ModuleVersion{}
	d.tickCounter = 0
	d.rotationStep = 0
	d.lastCommand = CmdNone
}

// Deinit powers the protocol instance down: it emits MODULE_MODE(STANDBY)
// so the module parks, then leaves internal state as whatever the module
// eventually replies with (re-arming is via Init).
func (d *Driver) Deinit() {
	d.mu.Lock()
	frame := protocol.BuildFrame(protocol.ReqSetExpectData, protocol.CmdModuleMode, d.nextSeqLocked(), []byte{byte(protocol.ModeStandby)})
	d.mu.Unlock()
	d.emit(frame, protocol.OpAwaitingResponse)
}

// Snapshot is a read-only, concurrency-safe view of the driver's state,
// suitable for a status API or dashboard.
type Snapshot struct {
	Slot           int
	ModuleState    protocol.ModuleState
	OperationState protocol.OperationState
	RepeatCount    int
	Version        protocol.ModuleVersion
}

// Snapshot returns a consistent copy of the driver's externally visible
// state.
func (d *Driver) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot{
		Slot:           d.slot,
		ModuleState:    d.moduleState,
		OperationState: d.opState,
		RepeatCount:    d.repeatCount,
		Version:        d.version,
	}
}

// nextSeqLocked returns the current sequence counter and post-increments
// it. Caller must hold d.mu.
func (d *Driver) nextSeqLocked() byte {
	s := d.seq
	d.seq++
	return s
}

// emit pushes a built frame through the byte codec into the transport sink
// and records the resulting operation state. It does not flush; Flush is a
// separate step so the caller can batch RX-drain, decide, emit within one
// Tick before touching the wire.
func (d *Driver) emit(frame []byte, opState protocol.OperationState) {
	d.sink.Reset()
	for _, b := range frame {
		d.sink.PushByte(b)
	}
	d.mu.Lock()
	d.opState = opState
	d.repeatCount = 0
	d.mu.Unlock()
	if d.mtr != nil {
		d.mtr.FrameSent()
	}
}

// Flush writes whatever is currently staged in the transport sink to the
// wire. Retries rely on the sink not clearing its buffer between ticks, so
// Flush may be called multiple times for the same staged frame.
func (d *Driver) Flush() error {
	return d.sink.Flush()
}

// GetByte pulls one RX byte from the source, non-blocking. Exposed mainly
// for the internal-module case where the scheduler drains bytes
// one-at-a-time rather than through Tick's batch drain.
func (d *Driver) GetByte() (byte, bool) {
	return d.src.ReadByte()
}

// Tick runs one full scheduler period: drain pending RX bytes into frames,
// dispatch any newly completed frame, then run the state machine to decide
// (at most) one outbound frame for this period.
func (d *Driver) Tick() {
	for {
		b, ok := d.GetByte()
		if !ok {
			break
		}
		d.feedByte(b)
	}
	d.decide()
}

// feedByte runs one raw wire byte through the frame accumulator,
// dispatching a completed frame when the accumulator closes one.
func (d *Driver) feedByte(b byte) {
	if frame, ok := d.accum.Feed(b); ok {
		d.dispatch(frame)
	}
}

// dispatch parses a de-escaped frame core and reacts per §4.3: update
// module/operation state, cache config/version, forward telemetry, and
// enqueue ACKs for REQ_SET_EXPECT_ACK requests received from the module.
func (d *Driver) dispatch(core []byte) {
	frame, err := protocol.ParseFrame(core)
	if err != nil {
		if d.mtr != nil && err == protocol.ErrBadCRC {
			d.mtr.CRCFailure()
		}
		if d.log != nil {
			d.log.Debug("dropped frame", logger.Any("error", err))
		}
		return
	}
	if d.mtr != nil {
		d.mtr.FrameReceived()
	}

	if frame.Type == protocol.ReqSetExpectAck {
		if !d.queue.EnqueueAck(frame.Command, frame.Seq) {
			if d.mtr != nil {
				d.mtr.AckDedupHit()
			}
		}
	}

	if !frame.Type.CarriesData() {
		d.mu.Lock()
		if d.opState == protocol.OpAwaitingResponse {
			d.opState = protocol.OpIdle
		}
		d.mu.Unlock()
		return
	}

	d.handleCommand(frame)

	d.mu.Lock()
	if d.opState == protocol.OpAwaitingResponse {
		d.opState = protocol.OpIdle
	}
	d.mu.Unlock()
}

func (d *Driver) handleCommand(frame protocol.Frame) {
	switch frame.Command {
	case protocol.CmdModuleReady:
		d.onModuleReady(frame.Payload)
	case protocol.CmdModuleGetConfig:
		d.config.SetRaw(frame.Payload)
	case protocol.CmdModuleVersion:
		if v, ok := protocol.ParseModuleVersion(frame.Payload); ok {
			d.mu.Lock()
			d.version = v
			d.mu.Unlock()
		}
	case protocol.CmdModuleState:
		if len(frame.Payload) > 0 {
			d.setModuleState(protocol.ModuleState(frame.Payload[0]))
		}
	case protocol.CmdModuleMode:
		d.onModuleMode(frame.Payload)
	case protocol.CmdModuleSetConfig:
		d.onModuleSetConfig(frame.Payload)
	case protocol.CmdTelemetryData:
		if d.telem != nil {
			telemetry.Demux(frame.Payload, telemetry.SinkFunc(func(rec telemetry.Record) {
				if d.mtr != nil {
					d.mtr.TelemetryRecord(rec.Type)
				}
				d.telem.Dispatch(rec)
			}))
		}
	case protocol.CmdCommandResult:
		// observability only
	}
}

// enqueue appends a deferred request to the command queue, recording a
// QueueDrop metric when the queue is full instead of silently discarding
// the drop.
func (d *Driver) enqueue(cmd protocol.Command, frameType protocol.FrameType, payload ...byte) {
	if !d.queue.Enqueue(cmd, frameType, payload...) && d.mtr != nil {
		d.mtr.QueueDrop()
	}
}

func (d *Driver) onModuleReady(payload []byte) {
	if len(payload) == 0 {
		return
	}
	if protocol.ModuleReadyValue(payload[0]) == protocol.ModuleStatusReady {
		d.setModuleState(protocol.StateReady)
	} else {
		d.setModuleState(protocol.StateNotReady)
	}
}

func (d *Driver) onModuleMode(payload []byte) {
	if len(payload) == 0 {
		return
	}
	if protocol.CmdResult(payload[0]) != protocol.ResultSuccess {
		d.setModuleState(protocol.StateNotReady)
		return
	}
	d.mu.Lock()
	wasRun := d.lastCommand == CmdModeRun
	d.lastCommand = CmdNone
	d.mu.Unlock()
	if wasRun {
		d.enqueue(protocol.CmdModuleGetConfig, protocol.ReqGetData)
		d.enqueue(protocol.CmdModuleState, protocol.ReqGetData)
	}
}

func (d *Driver) onModuleSetConfig(payload []byte) {
	if len(payload) == 0 {
		return
	}
	if protocol.CmdResult(payload[0]) != protocol.ResultSuccess {
		d.setModuleState(protocol.StateNotReady)
	}
}

// setModuleState transitions the module state, mirroring the original's
// extra side effect when leaving BINDING: the host-requested mode resets
// to NORMAL, since binding completes (or fails) in a single shot and
// nothing should remain latched in BIND afterward.
func (d *Driver) setModuleState(s protocol.ModuleState) {
	d.mu.Lock()
	old := d.moduleState
	d.moduleState = s
	d.mu.Unlock()
	if old == protocol.StateBinding {
		d.model.SetRequestedMode(UserModeNormal)
	}
	if d.mtr != nil {
		d.mtr.SetModuleState(d.slot, s.String())
	}
}
