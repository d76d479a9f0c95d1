package protocol

import "errors"

// ErrShortFrame is returned by ParseFrame when the de-escaped byte run
// is too short to hold ADDR, SEQ, TYPE, CMD and CRC.
var ErrShortFrame = errors.New("afhds3: frame too short")

// ErrBadCRC is returned by ParseFrame when the trailing CRC byte does
// not match the computed checksum.
var ErrBadCRC = errors.New("afhds3: crc mismatch")

// minFrameCore is ADDR+SEQ+TYPE+CMD+CRC with no payload.
const minFrameCore = 5

func checksum(core []byte) byte {
	var sum byte
	for _, b := range core {
		sum += b
	}
	return sum ^ 0xFF
}

// BuildFrame encodes a complete on-wire byte run — START, the
// byte-stuffed ADDR/SEQ/TYPE/CMD/PAYLOAD/CRC core, and END — for an
// outbound frame with the given sequence number.
func BuildFrame(frameType FrameType, cmd Command, seq byte, payload []byte) []byte {
	core := make([]byte, 0, 4+len(payload))
	core = append(core, FrameAddress, seq, byte(frameType), byte(cmd))
	core = append(core, payload...)
	crc := checksum(core)

	out := make([]byte, 0, 2+2*(len(core)+1))
	out = append(out, Start)
	for _, b := range core {
		out = EncodeByte(out, b)
	}
	out = EncodeByte(out, crc)
	out = append(out, End)
	return out
}

// Frame is a fully parsed, de-escaped, CRC-validated inbound frame.
type Frame struct {
	Addr      byte
	Seq       byte
	Type      FrameType
	Command   Command
	Payload   []byte
}

// ParseFrame validates and decodes a de-escaped frame core (everything
// between the START and END sentinels, with byte-stuffing already
// removed by a FrameAccumulator). The CRC is checked over
// ADDR..payload-end against the trailing CRC byte.
func ParseFrame(core []byte) (Frame, error) {
	if len(core) < minFrameCore {
		return Frame{}, ErrShortFrame
	}
	payloadEnd := len(core) - 1
	wantCRC := core[payloadEnd]
	if checksum(core[:payloadEnd]) != wantCRC {
		return Frame{}, ErrBadCRC
	}
	return Frame{
		Addr:    core[0],
		Seq:     core[1],
		Type:    FrameType(core[2]),
		Command: Command(core[3]),
		Payload: core[4:payloadEnd],
	}, nil
}

// FrameAccumulator reassembles inbound de-escaped frame cores from a
// raw, byte-stuffed wire stream. A standalone END both closes a
// non-empty accumulation and opens the next; the accumulator resets
// itself after every delivered frame, per the framing contract.
type FrameAccumulator struct {
	decoder ByteDecoder
	buf     []byte
}

// NewFrameAccumulator returns a ready-to-use accumulator.
func NewFrameAccumulator() *FrameAccumulator {
	return &FrameAccumulator{buf: make([]byte, 0, 32)}
}

// Feed processes one raw wire byte. It returns a complete frame core
// (ADDR..CRC, no START/END) and true when END closes a non-empty
// accumulation; otherwise it returns (nil, false). A frame-core overflow
// silently drops the in-progress accumulation and waits for the next
// START/END, per the framing-error recovery policy.
func (a *FrameAccumulator) Feed(b byte) ([]byte, bool) {
	event, value := a.decoder.Decode(b)
	switch event {
	case EventBoundary:
		if len(a.buf) == 0 {
			return nil, false
		}
		if len(a.buf) > MaxFrameBytes {
			// overflowed run: drop it and start fresh after this END
			a.buf = a.buf[:0]
			return nil, false
		}
		frame := make([]byte, len(a.buf))
		copy(frame, a.buf)
		a.buf = a.buf[:0]
		return frame, true
	case EventByte:
		if len(a.buf) > MaxFrameBytes {
			return nil, false // already overflowed; discard until the next END
		}
		a.buf = append(a.buf, value)
	}
	return nil, false
}

// Reset discards any partial accumulation and escape state.
func (a *FrameAccumulator) Reset() {
	a.buf = a.buf[:0]
	a.decoder.Reset()
}
