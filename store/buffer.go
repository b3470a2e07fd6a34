package store

// bufferSize is the fixed capacity of every buffer allocated for
// standard-input data (§5: "buffer size is a compile-time constant").
const bufferSize = 64 * 1024

// Buffer is one node of the queue's doubly linked list. seq is a
// monotonically increasing generation assigned at append time, used
// only to make reclamation sweeps and reference comparisons cheap
// (§9's "buffer_generation" suggestion) — Go's garbage collector, not
// a generation check, is what actually keeps a client's Data pointer
// safe to read even after the queue unlinks the buffer from head/tail.
type Buffer struct {
	seq  uint64
	data []byte // owned copy of one stdin read, at most bufferSize bytes

	// recordCount/byteCount are the cumulative counters as of the end
	// of this buffer (§4.2.4): recordCount = previous buffer's
	// recordCount plus the records completed within this buffer.
	recordCount uint64
	byteCount   uint64

	next, prev *Buffer
}

// Len reports how many bytes this buffer currently holds.
func (b *Buffer) Len() int { return len(b.data) }

// BufferQueue is the doubly linked list from head (oldest surviving)
// to tail (most recent), plus the cumulative counters of §4.2.4.
type BufferQueue struct {
	head, tail *Buffer
	nextSeq    uint64

	recordCount uint64 // == tail.recordCount, or 0 if empty
	byteCount   uint64 // == tail.byteCount, or 0 if empty

	mode   frameMode
	sepRS  byte // separator mode: the record separator byte
	fixedL int  // fixed-length mode: record length
}

func newBufferQueue(cfg Config) *BufferQueue {
	return &BufferQueue{
		mode:   cfg.Mode,
		sepRS:  cfg.Separator,
		fixedL: cfg.FixedLength,
	}
}

// Append adds a freshly read chunk as a new tail buffer and updates
// the cumulative counters (§4.2.4).
func (q *BufferQueue) Append(chunk []byte) *Buffer {
	b := &Buffer{
		seq:  q.nextSeq,
		data: append([]byte(nil), chunk...),
		prev: q.tail,
	}
	q.nextSeq++

	switch q.mode {
	case modeSeparator:
		b.recordCount = q.recordCount + uint64(countByte(b.data, q.sepRS))
	case modeFixedLength:
		b.byteCount = q.byteCount + uint64(len(b.data))
		b.recordCount = b.byteCount / uint64(q.fixedL)
	}

	if q.tail != nil {
		q.tail.next = b
	} else {
		q.head = b
	}
	q.tail = b
	q.recordCount = b.recordCount
	q.byteCount = b.byteCount
	return b
}

func countByte(data []byte, c byte) int {
	n := 0
	for _, v := range data {
		if v == c {
			n++
		}
	}
	return n
}

// Reclaim sweeps from head forward and unlinks every buffer strictly
// before keep (§4.2.7). keep is typically the current record's start
// buffer, adjusted down to the oldest buffer any sending client still
// references. Passing nil keeps everything — there is no current
// record yet, so none of the buffers held so far can be discarded.
func (q *BufferQueue) Reclaim(keep *Buffer) {
	if keep == nil {
		return
	}
	for q.head != nil && q.head != keep {
		next := q.head.next
		q.head.next = nil
		if next != nil {
			next.prev = nil
		} else {
			q.tail = nil
		}
		q.head = next
	}
}
