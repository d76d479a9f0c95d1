package transport

import "sync"

// LoopbackSink is an in-memory Sink+Source, used for the internal-module
// variant (where there is no physical wire, just an on-board pulse link)
// and for tests. Flush is a no-op: pushed bytes are visible through Bytes()
// as soon as they are pushed, and nothing is sent anywhere on its own.
type LoopbackSink struct {
	mu  sync.Mutex
	tx  []byte
	rx  []byte
	pos int
}

// NewLoopbackSink returns an empty loopback transport.
func NewLoopbackSink() *LoopbackSink {
	return &LoopbackSink{}
}

// Reset clears the outbound buffer, ready for the next frame.
func (l *LoopbackSink) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tx = l.tx[:0]
}

// PushByte appends one byte to the outbound buffer.
func (l *LoopbackSink) PushByte(b byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tx = append(l.tx, b)
}

// Flush is a no-op for a loopback sink: the bytes are already visible via
// Bytes, there is no physical line to push them onto.
func (l *LoopbackSink) Flush() error {
	return nil
}

// Size reports the number of bytes currently queued for send.
func (l *LoopbackSink) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tx)
}

// Bytes returns a copy of the outbound buffer as it stands, without
// consuming it (the real transport contract: re-flushing resends).
func (l *LoopbackSink) Bytes() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]byte, len(l.tx))
	copy(out, l.tx)
	return out
}

// Inject appends bytes to the inbound queue, as if received from the wire.
func (l *LoopbackSink) Inject(b ...byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rx = append(l.rx, b...)
}

// ReadByte implements Source, pulling one previously injected byte.
func (l *LoopbackSink) ReadByte() (byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pos >= len(l.rx) {
		l.rx = l.rx[:0]
		l.pos = 0
		return 0, false
	}
	b := l.rx[l.pos]
	l.pos++
	return b, true
}

// Pipe wires one loopback sink's flushed output into another's inbound
// queue, for exercising a driver against a simulated peer end to end.
func Pipe(from, to *LoopbackSink) {
	to.Inject(from.Bytes()...)
}
