package fa

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Disk writer: drains queued major blocks onto the backing
 *		device with direct, positioned writes, wrapping the
 *		circular data region, and periodically flushes the header
 *		(gap log, current block, backlog) through an mmap'd,
 *		advisory-locked view of the header region. See spec.md
 *		sections 4.6 and 5.
 *
 *------------------------------------------------------------------*/

// Writer owns the backing file descriptor and drains write requests from
// a queue shared with the transform.
type Writer struct {
	file   *os.File
	header *DiskHeader
	queue  *BlockQueue
	log    *log.Logger

	headerMap []byte // mmap'd view of [0, DiskHeaderSize)

	writeOffset    int64 // position within the circular data region, just past the last byte written
	oldWriteOffset int64 // writeOffset as of the last header flush, for expiry's interval test
}

// OpenWriter opens path for direct, positioned writes and maps its header
// region for in-place updates. The file must already contain a valid
// header (see CreateArchiveFile).
func OpenWriter(path string, header *DiskHeader, queue *BlockQueue) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_DIRECT, 0)
	if err != nil {
		return nil, fmt.Errorf("opening archive file: %w", err)
	}
	headerMap, err := unix.Mmap(int(f.Fd()), 0, DiskHeaderSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapping header region: %w", err)
	}
	var writeOffset int64
	if header.BlockCount > 0 {
		writeOffset = header.Blocks[0].StopOffset
	}
	return &Writer{
		file:           f,
		header:         header,
		queue:          queue,
		log:            log.With("component", "writer"),
		headerMap:      headerMap,
		writeOffset:    writeOffset,
		oldWriteOffset: writeOffset,
	}, nil
}

// Close unmaps the header and closes the file.
func (w *Writer) Close() error {
	_ = unix.Munmap(w.headerMap)
	return w.file.Close()
}

// Run drains write requests until the queue is closed. Grounded on
// disk_writer.c's writer_thread/get_valid_read_block pairing: the first
// block is taken without gap bookkeeping (any pre-existing gap is
// ignored), then every subsequent block is fetched with archiving=true,
// so one that wasn't immediately queued forces a header flush while the
// writer waits and opens a fresh gap-log record once it arrives.
func (w *Writer) Run(nowSeconds func() uint64) {
	req, ok := w.nextBlock(nowSeconds, false)
	if !ok {
		return
	}
	w.startArchiveBlock(nowSeconds())

	for {
		if err := w.writeBlock(req); err != nil {
			w.log.Error("writing major block failed", "offset", req.Offset, "err", err)
		} else {
			w.advanceWriteOffset(req)
		}
		w.updateHeader(false, nowSeconds())

		next, ok := w.nextBlock(nowSeconds, true)
		if !ok {
			return
		}
		req = next
	}
}

// nextBlock fetches the next write request. If archiving and none is
// immediately available, it force-flushes the header while it waits (so
// readers see an up-to-date stop time during the gap) and, once a block
// arrives, opens a fresh gap-log record for it.
func (w *Writer) nextBlock(nowSeconds func() uint64, archiving bool) (WriteRequest, bool) {
	req, gotItem, closed := w.queue.TryReceive()
	if closed {
		return WriteRequest{}, false
	}
	if gotItem {
		return req, true
	}
	if archiving {
		w.updateHeader(true, nowSeconds())
	}
	req, ok := w.queue.Receive()
	if !ok {
		return WriteRequest{}, false
	}
	if archiving {
		w.startArchiveBlock(nowSeconds())
	}
	return req, true
}

// writeBlock issues a positioned write for one major block's worth of
// data at its absolute offset within the file.
func (w *Writer) writeBlock(req WriteRequest) error {
	n, err := w.file.WriteAt(req.Data, req.Offset)
	if err != nil {
		return err
	}
	if n != len(req.Data) {
		return fmt.Errorf("short write: wrote %d of %d bytes", n, len(req.Data))
	}
	return nil
}

// advanceWriteOffset recomputes the writer's position within the
// circular data region from the request just written, wrapping at
// data_size as disk_writer.c's writer_thread does after each write.
func (w *Writer) advanceWriteOffset(req WriteRequest) {
	w.writeOffset = (req.Offset - w.header.DataStart) + int64(len(req.Data))
	if w.writeOffset >= w.header.DataSize {
		w.writeOffset = 0
	}
}

// startArchiveBlock pushes a fresh gap-log record at index 0, shifting
// every existing record down one slot — most recent at index 0, per
// spec.md section 4.6 — and caps block_count at MaxHeaderBlocks. The
// pushed record's stop fields are provisional; updateHeader fills them
// in on the next flush. Grounded on disk_writer.c's start_archive_block.
func (w *Writer) startArchiveBlock(now uint64) {
	h := w.header
	copy(h.Blocks[1:], h.Blocks[:MaxHeaderBlocks-1])
	h.BlockCount++
	if h.BlockCount > MaxHeaderBlocks {
		h.BlockCount = MaxHeaderBlocks
	}
	h.Blocks[0] = BlockRecord{
		StartSec:    now,
		StopSec:     now,
		StartOffset: w.writeOffset,
		StopOffset:  -1,
	}
	h.DiskStatus = 1
}

// expired reports whether offset, a byte position within the circular
// data region, falls in the half-open interval the write cursor has
// advanced across since the last flush — (oldWriteOffset, writeOffset],
// wrapping through data_size if the cursor wrapped since then. Grounded
// on disk_writer.c's expired.
func (w *Writer) expired(offset int64) bool {
	if w.writeOffset >= w.oldWriteOffset {
		return w.oldWriteOffset < offset && offset <= w.writeOffset
	}
	return offset <= w.writeOffset || w.oldWriteOffset < offset
}

// expireArchiveBlocks drops the oldest gap-log records whose stop offset
// has been overwritten by the write cursor since the last flush, then
// brings the new oldest record's start offset forward if it too has been
// overwritten. Grounded on disk_writer.c's expire_archive_blocks.
func (w *Writer) expireArchiveBlocks() {
	h := w.header
	for h.BlockCount > 1 && w.expired(h.Blocks[h.BlockCount-1].StopOffset) {
		h.BlockCount--
	}
	if h.BlockCount == 0 {
		w.oldWriteOffset = w.writeOffset
		return
	}
	oldest := &h.Blocks[h.BlockCount-1]
	if w.expired(oldest.StartOffset) || oldest.StartOffset == w.oldWriteOffset {
		oldest.StartOffset = w.writeOffset
	}
	w.oldWriteOffset = w.writeOffset
}

// updateHeader mirrors disk_writer.c's update_header: expire stale
// gap-log entries, then, if forced or the wall clock has ticked since
// the last flush, refresh blocks[0]'s stop fields and the write-backlog
// high-water mark and flush the header through its locked, mmap'd view.
func (w *Writer) updateHeader(forceWrite bool, now uint64) {
	w.expireArchiveBlocks()
	h := w.header
	if !forceWrite && h.BlockCount > 0 && now == h.Blocks[0].StopSec {
		return
	}
	h.WriteBacklog = w.queue.Backlog()
	w.queue.ResetBacklog()
	if h.BlockCount > 0 {
		h.Blocks[0].StopSec = now
		h.Blocks[0].StopOffset = w.writeOffset
	}
	w.flushHeader()
}

// flushHeader takes the header's byte-range lock, copies the current
// state into the mmap'd region, flushes it with msync(ASYNC), and
// releases the lock, per spec.md section 4.6's header-write protocol.
func (w *Writer) flushHeader() {
	if err := LockHeader(w.file); err != nil {
		w.log.Error("locking header failed", "err", err)
		return
	}
	putHeaderTail(w.headerMap, w.header)
	if err := unix.Msync(w.headerMap, unix.MS_ASYNC); err != nil {
		w.log.Error("msync on header failed", "err", err)
	}
	if err := UnlockHeader(w.file); err != nil {
		w.log.Error("unlocking header failed", "err", err)
	}
}

// LockHeader takes a blocking, advisory byte-range write lock on the
// header region, so a concurrent writer or flush serializes around this
// one. Grounded on disk_writer.c's write_header's fcntl(F_SETLKW).
func LockHeader(f *os.File) error {
	lock := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(io.SeekStart),
		Start:  0,
		Len:    DiskHeaderSize,
	}
	return unix.FcntlFlock(f.Fd(), unix.F_SETLKW, &lock)
}

// UnlockHeader releases the lock taken by LockHeader.
func UnlockHeader(f *os.File) error {
	lock := unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: int16(io.SeekStart),
		Start:  0,
		Len:    DiskHeaderSize,
	}
	return unix.FcntlFlock(f.Fd(), unix.F_SETLK, &lock)
}
