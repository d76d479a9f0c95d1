// Package protocol implements the AFHDS3 link-layer wire format: the
// SLIP-style byte codec, frame encoding/decoding, the command queue and
// the configuration/channel payload layouts exchanged with the RF module.
package protocol

// Special framing bytes (SLIP-style byte stuffing).
const (
	End    byte = 0xC0 // frame start/end sentinel
	Start       = End
	Esc    byte = 0xDB // escape marker
	EscEnd byte = 0xDC // escaped representation of End
	EscEsc byte = 0xDD // escaped representation of Esc
)

// Device addresses that make up the on-wire ADDR byte.
const (
	AddrTransmitter byte = 0x01
	AddrModule      byte = 0x05
)

// FrameAddress is the fixed ADDR byte used on every transmitted frame:
// (MODULE<<4)|TRANSMITTER.
const FrameAddress byte = (AddrModule << 4) | AddrTransmitter

// MaxChannels is the largest channel count any PHY mode uses, and the
// size of the FailSafe table carried in both configuration layouts.
const MaxChannels = 18

// Channel scaling bounds (wire units, 10x the mixer's -1024..1024 range).
const (
	FailsafeMin int16 = -10240
	FailsafeMax int16 = 10240
)

// FailsafeKeepLast is the sentinel wire value meaning "hold last pulse",
// stored as the raw 0x8000 bit pattern in a signed 16-bit field.
const FailsafeKeepLast int16 = -32768 // 0x8000

// FRM302Status is the telemetry sub-record id carrying combined
// temperature/voltage status for the FRM302 receiver.
const FRM302Status byte = 0x56

// MaxFrameBytes bounds the frame accumulator so a stray, unterminated
// run of bytes cannot grow the buffer without limit.
const MaxFrameBytes = 256

// MaxQueueEntries is the number of slots in the command queue ring; must
// be a power of two so index wraparound is a plain mask. One slot always
// stays free, so at most MaxQueueEntries-1 entries are pending at once.
const MaxQueueEntries = 8

// MaxRetries bounds how many scheduler ticks a request may be
// retransmitted before the driver gives up and regresses to NotReady.
const MaxRetries = 5

// TickCounterPeriod is how many scheduler ticks elapse between rotations
// of the periodic command schedule (MODULE_STATE / MODULE_GET_CONFIG /
// VIRTUAL_FAILSAFE) when the link is otherwise idle or connected.
const TickCounterPeriod = 150
