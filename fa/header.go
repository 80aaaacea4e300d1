package fa

import "fmt"

/*------------------------------------------------------------------
 *
 * Purpose:	Disk header: geometry (immutable after creation) plus the
 *		runtime fields the writer maintains (current major block,
 *		last duration, disk status, gap log). See spec.md sections
 *		3 and 4.6.
 *
 *------------------------------------------------------------------*/

// DiskMagic identifies a valid archive file.
const DiskMagic uint32 = 0xfa2c4142 // "FA", archive, Blook Positon

// DiskHeaderSize is the fixed byte size of the header region at the start
// of the archive file, rounded up to a conservative direct-I/O block
// size so the header's own region never overlaps the data region's
// alignment requirements.
const DiskHeaderSize = 4096

// MaxHeaderBlocks bounds the gap-log stack kept in the header.
const MaxHeaderBlocks = 64

// BlockRecord is one gap-bounded interval in the header's gap log,
// expressed in wall-clock seconds and byte offsets into the circular
// data region.
type BlockRecord struct {
	StartSec    uint64
	StopSec     uint64
	StartOffset int64
	StopOffset  int64
}

// DiskHeader is the complete on-disk header: immutable geometry plus the
// mutable fields the writer maintains.
type DiskHeader struct {
	Magic uint32
	Geometry

	MajorDataStart int64 // byte offset of the circular major-block region
	DataStart      int64 // == MajorDataStart, kept for writer bookkeeping
	DataSize       int64 // major_block_count * major_block_size

	CurrentMajorBlock int
	LastDuration      uint32

	DiskStatus   int // 0 idle, 1 writing
	WriteBuffer  int // runtime config echo
	WriteBacklog int // max depth of queued major blocks since last header write

	BlockCount int
	Blocks     [MaxHeaderBlocks]BlockRecord
}

// NewDiskHeader builds a validated header for a freshly created archive
// with the given geometry, computing derived layout fields.
func NewDiskHeader(g Geometry) (*DiskHeader, error) {
	if err := validateGeometry(&g); err != nil {
		return nil, err
	}
	h := &DiskHeader{
		Magic:          DiskMagic,
		Geometry:       g,
		MajorDataStart: DiskHeaderSize + int64(g.DDTotalCount()*g.ArchivedCount())*DecimatedSampleSize,
	}
	h.DataStart = h.MajorDataStart
	h.DataSize = int64(g.MajorBlockCount) * g.MajorBlockSize()
	return h, nil
}

// validateGeometry checks the invariants from spec.md section 3 that do
// not depend on the backing device (the device logical block size check
// is performed separately once the device is known, see disk.go).
func validateGeometry(g *Geometry) error {
	k := g.ArchivedCount()
	if k == 0 {
		return fmt.Errorf("%w: empty archive mask", ErrHeaderInvalid)
	}
	if g.FaEntryCount <= 0 || g.FaEntryCount > MaskWords*64 {
		return fmt.Errorf("%w: invalid fa_entry_count %d", ErrHeaderInvalid, g.FaEntryCount)
	}
	if g.InputFrameCount <= 0 {
		return fmt.Errorf("%w: invalid input_frame_count", ErrHeaderInvalid)
	}
	shift := g.FirstDecimationLog2
	if shift < 0 || (g.InputFrameCount>>uint(shift))<<uint(shift) != g.InputFrameCount {
		return fmt.Errorf("%w: input_frame_count not a multiple of 2^D1", ErrHeaderInvalid)
	}
	unit := g.InputFrameCount << uint(shift)
	if g.MajorSampleCount <= 0 || g.MajorSampleCount%unit != 0 {
		return fmt.Errorf(
			"%w: major_sample_count must be a multiple of input_frame_count<<D1",
			ErrHeaderInvalid)
	}
	if g.MajorSampleCount%(1<<uint(g.D())) != 0 {
		return fmt.Errorf("%w: major_sample_count not a multiple of 2^(D1+D2)", ErrHeaderInvalid)
	}
	if g.MajorBlockCount <= 0 {
		return fmt.Errorf("%w: invalid major_block_count", ErrHeaderInvalid)
	}
	return nil
}

// ValidateBlockSize checks the direct-I/O invariant: major_block_size must
// be a multiple of the device's logical block size.
func (h *DiskHeader) ValidateBlockSize(deviceBlockSize int64) error {
	if deviceBlockSize <= 0 {
		return fmt.Errorf("%w: invalid device block size", ErrHeaderInvalid)
	}
	if h.MajorBlockSize()%deviceBlockSize != 0 {
		return fmt.Errorf(
			"%w: major_block_size %d is not a multiple of device block size %d",
			ErrHeaderInvalid, h.MajorBlockSize(), deviceBlockSize)
	}
	return nil
}

// Validate checks a header read back from disk: magic and geometry
// consistency against the file size.
func (h *DiskHeader) Validate(fileSize int64) error {
	if h.Magic != DiskMagic {
		return fmt.Errorf("%w: bad magic", ErrHeaderInvalid)
	}
	if err := validateGeometry(&h.Geometry); err != nil {
		return err
	}
	want := h.MajorDataStart + h.DataSize
	if fileSize < want {
		return fmt.Errorf(
			"%w: file size %d too small for geometry (need %d)",
			ErrHeaderInvalid, fileSize, want)
	}
	return nil
}
