package protocol

import "sync/atomic"

// QueueEntry is one deferred outbound request or ACK waiting in the
// command queue.
type QueueEntry struct {
	Command    Command
	FrameType  FrameType
	Payload    byte
	HasPayload bool
	// UseSeq/Seq override the driver's internal sequence counter, used
	// when echoing the SEQ of a peer frame being acknowledged.
	UseSeq bool
	Seq    byte
}

// CommandQueue is a bounded single-producer/single-consumer FIFO of
// deferred outbound frames. The ring has MaxQueueEntries slots (a power
// of two) and holds at most MaxQueueEntries-1 entries, since a full ring
// would look empty. Index comparisons need no additional locking beyond
// atomic publication of the two indices, per the embedded driver's
// volatile set/get index discipline.
type CommandQueue struct {
	entries  [MaxQueueEntries]QueueEntry
	setIndex atomic.Uint32
	getIndex atomic.Uint32
}

const queueMask = MaxQueueEntries - 1

func nextQueueIndex(i uint32) uint32 {
	return (i + 1) & queueMask
}

// Clear empties the queue and resets both indices to zero.
func (q *CommandQueue) Clear() {
	q.setIndex.Store(0)
	q.getIndex.Store(0)
}

// Empty reports whether the queue currently holds no entries.
func (q *CommandQueue) Empty() bool {
	return q.getIndex.Load() == q.setIndex.Load()
}

// Enqueue appends a request, dropping it silently if the queue is full
// (bounded-loss policy: a dropped periodic request is re-scheduled next
// cycle by the caller).
func (q *CommandQueue) Enqueue(cmd Command, frameType FrameType, payload ...byte) bool {
	set := q.setIndex.Load()
	next := nextQueueIndex(set)
	if next == q.getIndex.Load() {
		return false
	}
	entry := QueueEntry{Command: cmd, FrameType: frameType}
	if len(payload) > 0 {
		entry.Payload = payload[0]
		entry.HasPayload = true
	}
	q.entries[set] = entry
	q.setIndex.Store(next)
	return true
}

// EnqueueAck appends an ACK for the given peer sequence number,
// deduplicating against the entry currently at the head of the queue:
// two REQ_SET_EXPECT_ACK frames with the same SEQ arriving before either
// is drained must not produce two ACKs.
func (q *CommandQueue) EnqueueAck(cmd Command, seq byte) bool {
	get := q.getIndex.Load()
	set := q.setIndex.Load()
	if get != set {
		head := q.entries[get]
		if head.FrameType == RespAck && head.UseSeq && head.Seq == seq {
			return false
		}
	}
	next := nextQueueIndex(set)
	if next == get {
		return false
	}
	q.entries[set] = QueueEntry{
		Command:   cmd,
		FrameType: RespAck,
		UseSeq:    true,
		Seq:       seq,
	}
	q.setIndex.Store(next)
	return true
}

// Dequeue removes and returns the head entry, if any.
func (q *CommandQueue) Dequeue() (QueueEntry, bool) {
	get := q.getIndex.Load()
	if get == q.setIndex.Load() {
		return QueueEntry{}, false
	}
	entry := q.entries[get]
	q.getIndex.Store(nextQueueIndex(get))
	return entry, true
}
