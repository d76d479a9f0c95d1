package driver

import "github.com/dbehnke/afhds3d/pkg/protocol"

// rotationCommands is the periodic rotation polled every TickCounterPeriod
// ticks when there is nothing more urgent to send.
var rotationCommands = [...]protocol.Command{
	protocol.CmdModuleState,
	protocol.CmdModuleGetConfig,
	protocol.CmdVirtualFailsafe,
}

// decide runs one state-machine step: first match wins, at most one frame
// emitted.
func (d *Driver) decide() {
	d.mu.RLock()
	opState := d.opState
	repeatCount := d.repeatCount
	moduleState := d.moduleState
	d.mu.RUnlock()

	// 1/2: retry and timeout policy for an outstanding request.
	if opState == protocol.OpAwaitingResponse {
		if repeatCount < protocol.MaxRetries {
			d.mu.Lock()
			d.repeatCount++
			d.mu.Unlock()
			// Leave the staged buffer in place; the next Flush resends it.
			return
		}
		if d.log != nil {
			d.log.Warn("protocol timeout, regressing to NOT_READY")
		}
		if d.mtr != nil {
			d.mtr.ProtocolTimeout()
		}
		d.Init()
		return
	}

	// 3: an UNKNOWN operation state (fresh init) regresses module state.
	if opState == protocol.OpUnknown {
		d.mu.Lock()
		d.moduleState = protocol.StateNotReady
		d.mu.Unlock()
		moduleState = protocol.StateNotReady
	}

	// 4: not ready yet — probe readiness.
	if moduleState == protocol.StateNotReady {
		d.sendRequest(protocol.ReqGetData, protocol.CmdModuleReady, nil)
		return
	}

	// 5: deferred work takes priority over anything periodic.
	if !d.queue.Empty() {
		if d.emitQueueHead() {
			return
		}
	}

	mode := d.model.RequestedMode()

	// 7: bind requested and not yet binding.
	if mode == UserModeBind && moduleState != protocol.StateBinding {
		cfg := d.buildConfig()
		d.sendRequest(protocol.ReqSetExpectData, protocol.CmdModuleSetConfig, cfg.Marshal())
		d.enqueue(protocol.CmdModuleMode, protocol.ReqSetExpectData, byte(protocol.ModeBind))
		return
	}

	// 8: normal mode, module idle in READY/STANDBY — trigger run-sequence.
	if mode == UserModeNormal && (moduleState == protocol.StateReady || moduleState == protocol.StateStandby) {
		d.sendRequest(protocol.ReqGetData, protocol.CmdModuleVersion, nil)
		d.enqueue(protocol.CmdModuleMode, protocol.ReqSetExpectData, byte(protocol.ModeRun))
		d.mu.Lock()
		d.lastCommand = CmdModeRun
		d.mu.Unlock()
		return
	}

	// 9: leaving bind, return to run.
	if mode == UserModeNormal && moduleState == protocol.StateBinding {
		d.sendRequest(protocol.ReqSetExpectData, protocol.CmdModuleMode, []byte{byte(protocol.ModeRun)})
		return
	}

	// 10: periodic rotation.
	d.mu.Lock()
	d.tickCounter++
	due := d.tickCounter >= protocol.TickCounterPeriod
	if due {
		d.tickCounter = 0
	}
	d.mu.Unlock()

	if due {
		cmd := rotationCommands[d.rotationStep%len(rotationCommands)]
		d.rotationStep++
		if cmd == protocol.CmdVirtualFailsafe {
			if d.connected() {
				d.sendFailsafe()
				return
			}
			cmd = protocol.CmdModuleState
		}
		d.sendRequest(protocol.ReqGetData, cmd, nil)
		return
	}

	// 11: connected — emit the channels frame.
	if d.connected() {
		d.sendChannels()
		return
	}

	// 12: fallback probe.
	d.sendRequest(protocol.ReqGetData, protocol.CmdModuleState, nil)
}

// connected reports the unicast "connected" predicate (§4.5): state ==
// SYNC_DONE. The multicast/one-way predicate is always false per §9 Open
// Questions (isConnectedMulticast is dead code upstream) and is not
// represented here — see sendFailsafe for where that branch would live.
func (d *Driver) connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.moduleState == protocol.StateSyncDone
}

// sendRequest builds and emits a frame using the internal sequence counter.
func (d *Driver) sendRequest(frameType protocol.FrameType, cmd protocol.Command, payload []byte) {
	d.mu.Lock()
	seq := d.nextSeqLocked()
	d.mu.Unlock()

	frame := protocol.BuildFrame(frameType, cmd, seq, payload)
	opState := protocol.OpIdle
	if frameType == protocol.ReqGetData || frameType == protocol.ReqSetExpectData || frameType == protocol.ReqSetExpectAck {
		opState = protocol.OpAwaitingResponse
	}
	d.emit(frame, opState)
}

// emitQueueHead dequeues and emits one queued entry (a deferred request or
// a pending ACK). Returns false if the queue was empty (a benign race with
// a concurrent ACK producer).
func (d *Driver) emitQueueHead() bool {
	entry, ok := d.queue.Dequeue()
	if !ok {
		return false
	}

	var payload []byte
	if entry.HasPayload {
		payload = []byte{entry.Payload}
	}

	d.mu.Lock()
	seq := entry.Seq
	if !entry.UseSeq {
		seq = d.nextSeqLocked()
	}
	if entry.Command == protocol.CmdModuleMode && entry.HasPayload && protocol.ModuleMode(entry.Payload) == protocol.ModeRun {
		d.lastCommand = CmdModeRun
	}
	d.mu.Unlock()

	frame := protocol.BuildFrame(entry.FrameType, entry.Command, seq, payload)
	opState := protocol.OpIdle
	if entry.FrameType == protocol.ReqGetData || entry.FrameType == protocol.ReqSetExpectData || entry.FrameType == protocol.ReqSetExpectAck {
		opState = protocol.OpAwaitingResponse
	}
	d.emit(frame, opState)
	return true
}
