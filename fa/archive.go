package fa

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Top-level archive value wiring the header, transform,
 *		writer and sniffer together, and the CLI-surface lifecycle
 *		operations spec.md section 6 names:
 *		initialise_disk_writer/configure_sniffer/start_sniffer/
 *		terminate_sniffer/terminate_disk_writer. See spec.md
 *		sections 2 and 5 for the concurrency model this wiring
 *		realizes.
 *
 *------------------------------------------------------------------*/

// Archive is a running archiver instance: one disk header, one transform,
// one writer goroutine and (optionally) one live sniffer goroutine.
type Archive struct {
	path   string
	header *DiskHeader
	queue  *BlockQueue
	writer *Writer
	xform  *Transform

	prefilter Prefilter
	sniffer   SnifferDevice

	snifferCancel context.CancelFunc
	snifferDone   chan struct{}

	log *log.Logger
}

// OpenArchive opens an existing archive file at path for reading and
// writing, without starting a sniffer (equivalent to
// initialise_disk_writer with no subsequent configure_sniffer/
// start_sniffer call).
func OpenArchive(path string, writeBufferDepth int) (*Archive, error) {
	header, _, err := OpenArchiveFile(path)
	if err != nil {
		return nil, err
	}
	queue := NewBlockQueue(writeBufferDepth)
	writer, err := OpenWriter(path, header, queue)
	if err != nil {
		return nil, err
	}
	a := &Archive{
		path:   path,
		header: header,
		queue:  queue,
		writer: writer,
		xform:  NewTransform(header, queue),
		log:    log.With("component", "archive"),
	}
	go a.writer.Run(func() uint64 { return uint64(time.Now().Unix()) })
	return a, nil
}

// CreateArchive creates a new archive file with the given geometry and
// opens it, equivalent to running archive creation followed by
// initialise_disk_writer.
func CreateArchive(path string, g Geometry, writeBufferDepth int) (*Archive, error) {
	if _, err := CreateArchiveFile(path, g); err != nil {
		return nil, err
	}
	return OpenArchive(path, writeBufferDepth)
}

// Header returns the archive's disk header.
func (a *Archive) Header() *DiskHeader { return a.header }

// Transform returns the archive's transform engine, for readers to issue
// lookups against.
func (a *Archive) Transform() *Transform { return a.xform }

// UseESRFPrefilter enables the ESRF corrector-extraction prefilter (see
// esrf.go) ahead of every sniffer read. A no-op unless fa_entry_count
// supports it.
func (a *Archive) UseESRFPrefilter() {
	if a.header.FaEntryCount >= esrfMinEntries {
		a.prefilter = NewESRFFilter(a.header.FaEntryCount)
	}
}

// ConfigureSniffer attaches device as the live acquisition source,
// equivalent to configure_sniffer. It must be called before StartSniffer.
func (a *Archive) ConfigureSniffer(device SnifferDevice) {
	a.sniffer = device
}

// StartSniffer launches the sniffer goroutine, reading minor blocks from
// the configured device and feeding them to the transform. If
// boostPriority is set, the goroutine is pinned to the OS thread it
// starts on — the closest Go equivalent of the teacher's real-time FIFO
// priority boost, since Go cannot elevate a goroutine's scheduling class
// independent of its OS thread (spec.md section 9 design note).
func (a *Archive) StartSniffer(boostPriority bool) error {
	if a.sniffer == nil {
		return fmt.Errorf("fa: StartSniffer called before ConfigureSniffer")
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.snifferCancel = cancel
	a.snifferDone = make(chan struct{})

	minorSize := a.header.InputFrameCount * a.header.FaEntryCount * SampleSize
	go a.runSniffer(ctx, boostPriority, minorSize)
	return nil
}

func (a *Archive) runSniffer(ctx context.Context, boostPriority bool, minorSize int) {
	defer close(a.snifferDone)
	if boostPriority {
		runtime.LockOSThread()
	}

	buf := make([]byte, minorSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		timestamp, err := a.sniffer.Read(buf)
		if err != nil {
			a.log.Warn("sniffer read failed, will retry", "err", err)
			if rerr := a.sniffer.Reset(); rerr != nil {
				a.log.Error("sniffer reset failed", "err", rerr)
			}
			a.xform.ProcessBlock(nil, 0)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if a.prefilter != nil {
			a.prefilter.Apply(buf, a.header.InputFrameCount, a.header.FaEntryCount)
		}
		a.xform.ProcessBlock(buf, timestamp)
	}
}

// TerminateSniffer stops the sniffer goroutine and waits for it to exit,
// equivalent to terminate_sniffer. Safe to call even if no sniffer was
// started.
func (a *Archive) TerminateSniffer() {
	if a.snifferCancel == nil {
		return
	}
	a.snifferCancel()
	<-a.snifferDone
	a.snifferCancel = nil
}

// TerminateDiskWriter closes the write queue, waits for the writer
// goroutine to drain it, and closes the backing file.
func (a *Archive) TerminateDiskWriter() error {
	a.queue.Close()
	return a.writer.Close()
}

