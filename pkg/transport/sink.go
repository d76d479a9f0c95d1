// Package transport abstracts the byte sink/source the protocol core
// writes frames to and reads frames from, so the driver never depends on
// which physical (or virtual) wire carries the bytes.
package transport

// Sink is the outbound half of a transport: the driver pushes an
// already-encoded byte run into it, then flushes once per tick. Re-flushing
// without an intervening Reset must resend the same bytes, since the
// retry policy relies on the transport not clearing its buffer between
// scheduler ticks.
type Sink interface {
	Reset()
	PushByte(b byte)
	Flush() error
	Size() int
}

// Source is the inbound half of a transport. ReadByte is non-blocking: ok
// is false when there is nothing pending this tick.
type Source interface {
	ReadByte() (b byte, ok bool)
}
