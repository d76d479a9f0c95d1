package driver

import (
	"bytes"
	"testing"

	"github.com/dbehnke/afhds3d/pkg/protocol"
	"github.com/dbehnke/afhds3d/pkg/transport"
)

func newTestDriver(model Model) (*Driver, *transport.LoopbackSink) {
	link := transport.NewLoopbackSink()
	d := New(SlotInternal, model, link, link, nil, nil, nil)
	return d, link
}

func TestColdStartToRunning(t *testing.T) {
	model := newFakeModel()
	d, link := newTestDriver(model)

	d.Tick()
	wantReady := protocol.BuildFrame(protocol.ReqGetData, protocol.CmdModuleReady, 1, nil)
	if !bytes.Equal(link.Bytes(), wantReady) {
		t.Fatalf("tick 1 wire = % x, want % x", link.Bytes(), wantReady)
	}
	if d.Snapshot().OperationState != protocol.OpAwaitingResponse {
		t.Fatalf("expected AWAITING_RESPONSE after MODULE_READY request")
	}

	reply := protocol.BuildFrame(protocol.RespData, protocol.CmdModuleReady, 1, []byte{byte(protocol.ModuleStatusReady)})
	link.Inject(reply...)

	d.Tick()
	if got := d.Snapshot().ModuleState; got != protocol.StateReady {
		t.Fatalf("module state = %v, want READY", got)
	}

	wantVersion := protocol.BuildFrame(protocol.ReqGetData, protocol.CmdModuleVersion, 2, nil)
	if !bytes.Equal(link.Bytes(), wantVersion) {
		t.Fatalf("run-sequence wire = % x, want % x", link.Bytes(), wantVersion)
	}
	if d.queue.Empty() {
		t.Fatalf("expected MODULE_MODE(RUN) queued after run-sequence trigger")
	}
}

func TestChannelEmissionWhenConnected(t *testing.T) {
	model := newFakeModel()
	model.phyMode = protocol.ClassicFLCR1_18CH // 18 channels
	model.channelsStart = 0
	model.channelsCount = 8
	model.channels[0] = 512

	d, link := newTestDriver(model)
	d.mu.Lock()
	d.moduleState = protocol.StateSyncDone
	d.opState = protocol.OpIdle
	d.mu.Unlock()

	d.decide()

	frame, err := protocol.ParseFrame(mustUnescape(t, link.Bytes()))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if frame.Command != protocol.CmdChannelsFailsafeData {
		t.Fatalf("command = %v, want CHANNELS_FAILSAFE_DATA", frame.Command)
	}
	if frame.Payload[0] != byte(protocol.ChannelsDataChannels) || frame.Payload[1] != 18 {
		t.Fatalf("header = % x, want 01 12", frame.Payload[:2])
	}
	// Channel 0's value 512 scales to wire 5120 = 0x1400, little-endian 00 14.
	if frame.Payload[2] != 0x00 || frame.Payload[3] != 0x14 {
		t.Errorf("sample 0 = % x, want 00 14", frame.Payload[2:4])
	}
}

func TestTwoWayFailsafeRotation(t *testing.T) {
	model := newFakeModel()
	model.isTwoWay = true

	d, link := newTestDriver(model)
	d.mu.Lock()
	d.moduleState = protocol.StateSyncDone
	d.opState = protocol.OpIdle
	d.tickCounter = protocol.TickCounterPeriod - 1
	d.rotationStep = 2 // land on VIRTUAL_FAILSAFE
	d.mu.Unlock()

	d.decide()

	frame, err := protocol.ParseFrame(mustUnescape(t, link.Bytes()))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if frame.Command != protocol.CmdSendCommand {
		t.Fatalf("command = %v, want SEND_COMMAND", frame.Command)
	}
	if frame.Payload[0] != 0x11 || frame.Payload[1] != 0x60 || frame.Payload[2] != 0x24 {
		t.Fatalf("payload header = % x, want 11 60 24", frame.Payload[:3])
	}
	if len(frame.Payload) != 3+36 {
		t.Fatalf("payload length = %d, want 39", len(frame.Payload))
	}
}

func TestAckDeduplicationBeforeDrain(t *testing.T) {
	model := newFakeModel()
	d, link := newTestDriver(model)
	d.mu.Lock()
	d.opState = protocol.OpIdle
	d.moduleState = protocol.StateSyncDone // avoid unrelated probe frames
	d.mu.Unlock()

	reqAck := protocol.BuildFrame(protocol.ReqSetExpectAck, protocol.CmdCommandResult, 7, []byte{0x00})
	link.Inject(reqAck...)
	link.Inject(reqAck...)

	for {
		b, ok := link.ReadByte()
		if !ok {
			break
		}
		d.feedByte(b)
	}

	if d.queue.Empty() {
		t.Fatalf("expected exactly one ACK queued")
	}
	entry, ok := d.queue.Dequeue()
	if !ok || entry.FrameType != protocol.RespAck || entry.Seq != 7 {
		t.Fatalf("unexpected queued entry: %+v ok=%v", entry, ok)
	}
	if !d.queue.Empty() {
		t.Fatalf("expected only a single ACK to have been queued, duplicate leaked through")
	}
}

func TestRetryThenTimeoutRegression(t *testing.T) {
	model := newFakeModel()
	d, _ := newTestDriver(model)

	d.Tick() // emits MODULE_READY, enters AWAITING_RESPONSE

	for i := 0; i < protocol.MaxRetries; i++ {
		d.decide()
		if d.Snapshot().OperationState != protocol.OpAwaitingResponse {
			t.Fatalf("tick %d: expected still AWAITING_RESPONSE mid-retry", i)
		}
	}

	// One more tick past MAX_RETRIES must regress to NOT_READY/UNKNOWN.
	d.decide()
	snap := d.Snapshot()
	if snap.ModuleState != protocol.StateNotReady {
		t.Errorf("module state = %v, want NOT_READY", snap.ModuleState)
	}
	if snap.OperationState != protocol.OpUnknown {
		t.Errorf("operation state = %v, want UNKNOWN", snap.OperationState)
	}
}

func mustUnescape(t *testing.T, wire []byte) []byte {
	t.Helper()
	acc := protocol.NewFrameAccumulator()
	for _, b := range wire {
		if frame, ok := acc.Feed(b); ok {
			return frame
		}
	}
	t.Fatalf("no complete frame found in % x", wire)
	return nil
}
