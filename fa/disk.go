package fa

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jochenvg/go-udev"
	"golang.org/x/sys/unix"
)

/*------------------------------------------------------------------
 *
 * Purpose:	On-disk header layout: (de)serializing DiskHeader to and
 *		from the fixed DiskHeaderSize region, and creating a fresh
 *		archive file with that header and a zeroed data region. See
 *		spec.md section 3.
 *
 *------------------------------------------------------------------*/

const (
	offMagic        = 0
	offFaEntryCount = 4
	offInputFrames  = 8
	offMajorSamples = 12
	offD1           = 16
	offD2           = 20
	offMajorBlocks  = 24
	offMaskStart    = 28
	maskBytes       = MaskWords * 8
	offMajorData    = offMaskStart + maskBytes
	offDataStart    = offMajorData + 8
	offDataSize     = offDataStart + 8
	offCurrentBlock = offDataSize + 8
	offLastDuration = offCurrentBlock + 4
	offDiskStatus   = offLastDuration + 4
	offWriteBuffer  = offDiskStatus + 4
	offWriteBacklog = offWriteBuffer + 4
	offBlockCount   = offWriteBacklog + 4
	offBlocks       = offBlockCount + 4
	blockRecordSize = 32
)

// putHeaderGeometry serializes the immutable geometry fields of h into
// buf, which must be at least DiskHeaderSize bytes. Called once, at
// archive creation.
func putHeaderGeometry(buf []byte, h *DiskHeader) {
	le := binary.LittleEndian
	le.PutUint32(buf[offMagic:], h.Magic)
	le.PutUint32(buf[offFaEntryCount:], uint32(h.FaEntryCount))
	le.PutUint32(buf[offInputFrames:], uint32(h.InputFrameCount))
	le.PutUint32(buf[offMajorSamples:], uint32(h.MajorSampleCount))
	le.PutUint32(buf[offD1:], uint32(h.FirstDecimationLog2))
	le.PutUint32(buf[offD2:], uint32(h.SecondDecimationLog2))
	le.PutUint32(buf[offMajorBlocks:], uint32(h.MajorBlockCount))
	for i, word := range h.ArchiveMask.bits {
		le.PutUint64(buf[offMaskStart+i*8:], word)
	}
	le.PutUint64(buf[offMajorData:], uint64(h.MajorDataStart))
	putHeaderTail(buf, h)
}

// putHeaderTail serializes the mutable fields of h that the writer
// refreshes on every flush: data bookkeeping, current block, last
// duration, status counters and the gap log.
func putHeaderTail(buf []byte, h *DiskHeader) {
	le := binary.LittleEndian
	le.PutUint64(buf[offDataStart:], uint64(h.DataStart))
	le.PutUint64(buf[offDataSize:], uint64(h.DataSize))
	le.PutUint32(buf[offCurrentBlock:], uint32(h.CurrentMajorBlock))
	le.PutUint32(buf[offLastDuration:], h.LastDuration)
	le.PutUint32(buf[offDiskStatus:], uint32(h.DiskStatus))
	le.PutUint32(buf[offWriteBuffer:], uint32(h.WriteBuffer))
	le.PutUint32(buf[offWriteBacklog:], uint32(h.WriteBacklog))
	le.PutUint32(buf[offBlockCount:], uint32(h.BlockCount))
	for i := 0; i < h.BlockCount; i++ {
		b := h.Blocks[i]
		base := offBlocks + i*blockRecordSize
		le.PutUint64(buf[base:], b.StartSec)
		le.PutUint64(buf[base+8:], b.StopSec)
		le.PutUint64(buf[base+16:], uint64(b.StartOffset))
		le.PutUint64(buf[base+24:], uint64(b.StopOffset))
	}
}

// getHeader deserializes a DiskHeader from buf, which must be at least
// DiskHeaderSize bytes.
func getHeader(buf []byte) (*DiskHeader, error) {
	if len(buf) < DiskHeaderSize {
		return nil, fmt.Errorf("%w: header buffer too small", ErrHeaderInvalid)
	}
	le := binary.LittleEndian
	h := &DiskHeader{
		Magic: le.Uint32(buf[offMagic:]),
		Geometry: Geometry{
			FaEntryCount:         int(le.Uint32(buf[offFaEntryCount:])),
			InputFrameCount:      int(le.Uint32(buf[offInputFrames:])),
			MajorSampleCount:     int(le.Uint32(buf[offMajorSamples:])),
			FirstDecimationLog2:  int(le.Uint32(buf[offD1:])),
			SecondDecimationLog2: int(le.Uint32(buf[offD2:])),
			MajorBlockCount:      int(le.Uint32(buf[offMajorBlocks:])),
		},
		MajorDataStart: int64(le.Uint64(buf[offMajorData:])),
		DataStart:      int64(le.Uint64(buf[offDataStart:])),
		DataSize:       int64(le.Uint64(buf[offDataSize:])),

		CurrentMajorBlock: int(le.Uint32(buf[offCurrentBlock:])),
		LastDuration:      le.Uint32(buf[offLastDuration:]),
		DiskStatus:        int(le.Uint32(buf[offDiskStatus:])),
		WriteBuffer:       int(le.Uint32(buf[offWriteBuffer:])),
		WriteBacklog:      int(le.Uint32(buf[offWriteBacklog:])),
		BlockCount:        int(le.Uint32(buf[offBlockCount:])),
	}
	for i := range h.ArchiveMask.bits {
		h.ArchiveMask.bits[i] = le.Uint64(buf[offMaskStart+i*8:])
	}
	if h.BlockCount > MaxHeaderBlocks {
		return nil, fmt.Errorf("%w: block count %d exceeds maximum", ErrHeaderInvalid, h.BlockCount)
	}
	for i := 0; i < h.BlockCount; i++ {
		base := offBlocks + i*blockRecordSize
		h.Blocks[i] = BlockRecord{
			StartSec:    le.Uint64(buf[base:]),
			StopSec:     le.Uint64(buf[base+8:]),
			StartOffset: int64(le.Uint64(buf[base+16:])),
			StopOffset:  int64(le.Uint64(buf[base+24:])),
		}
	}
	return h, nil
}

// CreateArchiveFile creates a new archive file at path with the given
// geometry: a zeroed header region (immediately followed by geometry
// fields and an initial empty gap log) and a zeroed circular data
// region of the exact size the geometry requires. Grounded on
// disk_writer.c's initial file layout, adapted from raw ioctl/mmap setup
// to os.File (Truncate to size, then WriteAt for the header).
func CreateArchiveFile(path string, g Geometry) (*DiskHeader, error) {
	h, err := NewDiskHeader(g)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating archive file: %w", err)
	}
	defer f.Close()

	total := h.MajorDataStart + h.DataSize
	if err := f.Truncate(total); err != nil {
		return nil, fmt.Errorf("sizing archive file: %w", err)
	}

	buf := make([]byte, DiskHeaderSize)
	putHeaderGeometry(buf, h)
	if _, err := f.WriteAt(buf, 0); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("syncing archive file: %w", err)
	}
	return h, nil
}

// OpenArchiveFile reads and validates the header of an existing archive
// file, returning the header and the file's current size.
func OpenArchiveFile(path string) (*DiskHeader, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening archive file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, DiskHeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}
	h, err := getHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("statting archive file: %w", err)
	}
	if err := h.Validate(info.Size()); err != nil {
		return nil, 0, err
	}
	return h, info.Size(), nil
}

// ValidateBlockDevice checks, via udev, that path names a real block
// device (and not, say, a regular file or a partition mistaken for a
// whole disk), before the archive writer commits to doing direct,
// positioned writes against it.
func ValidateBlockDevice(path string) error {
	u := udev.Udev{}
	sysname := filepath.Base(path)
	dev := u.NewDeviceFromSubsystemSysname("block", sysname)
	if dev == nil {
		return fmt.Errorf("%w: %s is not a known block device", ErrHeaderInvalid, path)
	}
	if devtype := dev.Devtype(); devtype != "disk" {
		return fmt.Errorf("%w: %s has udev devtype %q, want \"disk\"", ErrHeaderInvalid, path, devtype)
	}
	if !strings.HasPrefix(dev.Devnode(), "/dev/") {
		return fmt.Errorf("%w: %s has unexpected devnode %q", ErrHeaderInvalid, path, dev.Devnode())
	}
	return nil
}

// DeviceBlockSize returns the logical block size of the block device at
// path, used to validate major_block_size alignment before committing to
// a geometry. Grounded on disk_writer.c's BLKSSZGET ioctl, expressed via
// golang.org/x/sys/unix's ioctl wrapper.
func DeviceBlockSize(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	size, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil {
		return 0, fmt.Errorf("BLKSSZGET on %s: %w", path, err)
	}
	return int64(size), nil
}
