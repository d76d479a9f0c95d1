package protocol

// FrameType is the TYPE byte of an AFHDS3 frame.
type FrameType byte

const (
	ReqGetData       FrameType = 0x01 // get data, response carries ACK+DATA
	ReqSetExpectData FrameType = 0x02 // set data, response carries ACK+DATA
	ReqSetExpectAck  FrameType = 0x03 // set data, response carries ACK only
	ReqSetNoResp     FrameType = 0x05 // set data, no response expected
	RespData         FrameType = 0x10 // response: ACK + DATA
	RespAck          FrameType = 0x20 // response: ACK only
)

// CarriesData reports whether frames of this type carry a meaningful
// payload to dispatch on: RESP_DATA and the three REQ_SET_* types.
// REQ_GET_DATA and the bare RESP_ACK do not.
func (t FrameType) CarriesData() bool {
	switch t {
	case RespData, ReqSetExpectData, ReqSetExpectAck, ReqSetNoResp:
		return true
	default:
		return false
	}
}

func (t FrameType) String() string {
	switch t {
	case ReqGetData:
		return "REQ_GET_DATA"
	case ReqSetExpectData:
		return "REQ_SET_EXPECT_DATA"
	case ReqSetExpectAck:
		return "REQ_SET_EXPECT_ACK"
	case ReqSetNoResp:
		return "REQ_SET_NO_RESP"
	case RespData:
		return "RESP_DATA"
	case RespAck:
		return "RESP_ACK"
	default:
		return "UNKNOWN"
	}
}

// Command is the CMD byte identifying the operation a frame performs.
type Command byte

const (
	CmdModuleReady           Command = 0x01
	CmdModuleState           Command = 0x02
	CmdModuleMode            Command = 0x03
	CmdModuleSetConfig       Command = 0x04
	CmdModuleGetConfig       Command = 0x06
	CmdChannelsFailsafeData  Command = 0x07
	CmdTelemetryData         Command = 0x09
	CmdSendCommand           Command = 0x0C
	CmdCommandResult         Command = 0x0D
	CmdModuleVersion         Command = 0x20
	// CmdVirtualFailsafe never appears on the wire; it drives the
	// periodic rotation's failsafe-emission branch.
	CmdVirtualFailsafe Command = 0x99
)

func (c Command) String() string {
	switch c {
	case CmdModuleReady:
		return "MODULE_READY"
	case CmdModuleState:
		return "MODULE_STATE"
	case CmdModuleMode:
		return "MODULE_MODE"
	case CmdModuleSetConfig:
		return "MODULE_SET_CONFIG"
	case CmdModuleGetConfig:
		return "MODULE_GET_CONFIG"
	case CmdChannelsFailsafeData:
		return "CHANNELS_FAILSAFE_DATA"
	case CmdTelemetryData:
		return "TELEMETRY_DATA"
	case CmdSendCommand:
		return "SEND_COMMAND"
	case CmdCommandResult:
		return "COMMAND_RESULT"
	case CmdModuleVersion:
		return "MODULE_VERSION"
	case CmdVirtualFailsafe:
		return "VIRTUAL_FAILSAFE"
	default:
		return "UNKNOWN"
	}
}

// ModuleState is the module lifecycle state reported by / inferred from
// the RF module.
type ModuleState byte

const (
	StateNotReady         ModuleState = 0x00 // virtual: never reported by module
	StateHWError          ModuleState = 0x01
	StateBinding          ModuleState = 0x02
	StateSyncRunning      ModuleState = 0x03
	StateSyncDone         ModuleState = 0x04
	StateStandby          ModuleState = 0x05
	StateUpdatingWait     ModuleState = 0x06
	StateUpdatingMod      ModuleState = 0x07
	StateUpdatingRX       ModuleState = 0x08
	StateUpdatingRXFailed ModuleState = 0x09
	StateRFTesting        ModuleState = 0x0a
	StateReady            ModuleState = 0x0b // virtual: derived from MODULE_READY
	StateHWTest           ModuleState = 0xff
)

var moduleStateText = map[ModuleState]string{
	StateNotReady:         "Not ready",
	StateHWError:          "HW Error",
	StateBinding:          "Binding",
	StateSyncRunning:      "Connecting",
	StateSyncDone:         "Connected",
	StateStandby:          "Standby",
	StateUpdatingWait:     "Waiting for update",
	StateUpdatingMod:      "Updating",
	StateUpdatingRX:       "Updating RX",
	StateUpdatingRXFailed: "Updating RX failed",
	StateRFTesting:        "Testing",
	StateReady:            "Ready",
	StateHWTest:           "HW test",
}

// String returns the UI-facing status text for a module state, or
// "Unknown" for any value the module should never actually report.
func (s ModuleState) String() string {
	if text, ok := moduleStateText[s]; ok {
		return text
	}
	return "Unknown"
}

// OperationState is the transport-level request/response state,
// orthogonal to ModuleState, that governs whether the driver may emit a
// new frame on a given tick.
type OperationState byte

const (
	OpUnknown OperationState = iota
	OpSendingCommand
	OpAwaitingResponse
	OpIdle
)

func (s OperationState) String() string {
	switch s {
	case OpUnknown:
		return "UNKNOWN"
	case OpSendingCommand:
		return "SENDING_COMMAND"
	case OpAwaitingResponse:
		return "AWAITING_RESPONSE"
	case OpIdle:
		return "IDLE"
	default:
		return "UNKNOWN"
	}
}

// ModuleMode is the wire-level value carried by MODULE_MODE requests,
// directing the module's run mode.
type ModuleMode byte

const (
	ModeStandby   ModuleMode = 0x01
	ModeBind      ModuleMode = 0x02
	ModeRun       ModuleMode = 0x03
	ModeRXUpdate  ModuleMode = 0x04
	ModeUnknown   ModuleMode = 0xFF
)

// CmdResult is the one-byte SUCCESS/FAILURE value a module returns for
// mode and config change requests.
type CmdResult byte

const (
	ResultFailure CmdResult = 0x01
	ResultSuccess CmdResult = 0x02
)

// ModuleReadyValue is the payload value of a MODULE_READY response.
type ModuleReadyValue byte

const (
	ModuleStatusUnknown  ModuleReadyValue = 0x00
	ModuleStatusNotReady ModuleReadyValue = 0x01
	ModuleStatusReady    ModuleReadyValue = 0x02
)

// FailsafeMode mirrors the model's per-module failsafe policy.
type FailsafeMode byte

const (
	FailsafeNoPulses FailsafeMode = 0x00
	FailsafeHold     FailsafeMode = 0x01
	FailsafeCustom   FailsafeMode = 0x02
)

// PhyMode selects the radio modulation/channel-plan variant, which in
// turn determines the channel count and the V0/V1 config layout.
type PhyMode byte

const (
	ClassicFLCR1_18CH PhyMode = iota
	ClassicFLCR6_10CH
	RoutineFLCR1_18CH
	RoutineFLCR6_8CH
	RoutineLORA_12CH
)

// phyModeChannels maps a PhyMode to its channel count.
var phyModeChannels = [...]uint8{18, 10, 18, 8, 12}

// ChannelCount returns the number of channels the given PHY mode
// carries, or 0 for an out-of-range mode.
func (m PhyMode) ChannelCount() uint8 {
	if int(m) < 0 || int(m) >= len(phyModeChannels) {
		return 0
	}
	return phyModeChannels[m]
}

// UsesConfigV1 reports whether this PHY mode selects the V1 (116 byte)
// configuration layout rather than V0 (48 byte).
func (m PhyMode) UsesConfigV1() bool {
	return m >= RoutineFLCR1_18CH
}

// ChannelsDataMode selects the meaning of a ChannelsData payload.
type ChannelsDataMode byte

const (
	ChannelsDataChannels ChannelsDataMode = 0x01
	ChannelsDataFailsafe ChannelsDataMode = 0x02
)
