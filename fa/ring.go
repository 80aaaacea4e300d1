package fa

import "sync"

/*------------------------------------------------------------------
 *
 * Purpose:	Bounded single-producer single-consumer queue of major
 *		block write requests, connecting the transform (running on
 *		the sniffer goroutine) to the disk writer goroutine. See
 *		spec.md sections 2 and 5 (Backpressure).
 *
 *		Unlike an unbounded channel, TrySend never blocks the
 *		producer: if the queue is full the request is dropped and
 *		the drop is reported to the caller, who is responsible for
 *		logging it as ErrWriterBacklog. This matches the documented
 *		backpressure contract: "the sniffer records the fact but
 *		still proceeds".
 *
 *------------------------------------------------------------------*/

// WriteRequest is one major block queued for the disk writer: the
// absolute byte offset within the archive file's data region, and the
// buffer to write there.
type WriteRequest struct {
	Offset int64
	Data   []byte
}

// BlockQueue is the bounded SPSC ring buffer of pending write requests.
type BlockQueue struct {
	ch chan WriteRequest

	mu      sync.Mutex
	maxSeen int // high-water mark since the last reset, for write_backlog
}

// NewBlockQueue creates a queue with the given capacity (the
// configurable write-buffer depth).
func NewBlockQueue(capacity int) *BlockQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &BlockQueue{ch: make(chan WriteRequest, capacity)}
}

// TrySend enqueues a write request without blocking. It returns false if
// the queue is full, meaning the block must be dropped.
func (q *BlockQueue) TrySend(req WriteRequest) bool {
	select {
	case q.ch <- req:
		q.recordDepth()
		return true
	default:
		return false
	}
}

func (q *BlockQueue) recordDepth() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n := len(q.ch); n > q.maxSeen {
		q.maxSeen = n
	}
}

// Receive blocks until a request is available or the queue is closed.
func (q *BlockQueue) Receive() (WriteRequest, bool) {
	req, ok := <-q.ch
	return req, ok
}

// TryReceive polls for a request without blocking. gotItem is true only
// if a request was immediately available; closed is true once the queue
// has been closed and fully drained. The writer uses a miss here (gotItem
// false, closed false) as its gap signal, mirroring disk_writer.c's
// get_valid_read_block non-blocking probe.
func (q *BlockQueue) TryReceive() (req WriteRequest, gotItem bool, closed bool) {
	select {
	case req, ok := <-q.ch:
		if !ok {
			return WriteRequest{}, false, true
		}
		return req, true, false
	default:
		return WriteRequest{}, false, false
	}
}

// Close shuts down the queue; further Receive calls drain what remains
// then return ok=false.
func (q *BlockQueue) Close() {
	close(q.ch)
}

// Backlog returns the high-water mark of queue depth since the last
// ResetBacklog call, for the header's write_backlog field.
func (q *BlockQueue) Backlog() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.maxSeen
}

// ResetBacklog zeroes the high-water mark after it has been recorded into
// the header.
func (q *BlockQueue) ResetBacklog() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maxSeen = 0
}
