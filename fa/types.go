package fa

/*------------------------------------------------------------------
 *
 * Purpose:	Core data model shared by the transform, index and disk
 *		writer: samples, decimated samples, and major-block
 *		geometry. See spec.md section 3.
 *
 *------------------------------------------------------------------*/

// Sample is one (x, y) reading for a single device within a frame.
type Sample struct {
	X, Y int32
}

// SampleSize is sizeof(Sample) on disk: two little-endian int32 fields.
const SampleSize = 8

// DecimatedSample is the per-device, per-window statistic computed by
// both decimation levels.
type DecimatedSample struct {
	MinX, MaxX int32
	MinY, MaxY int32
	MeanX, MeanY int32
	StdX, StdY int32
}

// DecimatedSampleSize is sizeof(DecimatedSample) on disk.
const DecimatedSampleSize = 32

// IndexEntry describes one major block's position in time.
type IndexEntry struct {
	Timestamp uint64 // microseconds
	Duration  uint32 // microseconds
	IDZero    int32  // x field of the first sample of the first frame
}

// Geometry holds the header-fixed parameters that define major-block
// layout. It never changes after archive creation (spec.md invariant:
// "the filter mask may only change across full archive recreation").
type Geometry struct {
	FaEntryCount        int // N
	InputFrameCount     int // frames per sniffer read (one minor block)
	MajorSampleCount    int // frames per major block
	FirstDecimationLog2 int // D1
	SecondDecimationLog2 int // D2
	MajorBlockCount     int // number of major blocks in the circular region
	ArchiveMask         Mask
}

// D returns D1+D2, the total decimation exponent.
func (g *Geometry) D() int {
	return g.FirstDecimationLog2 + g.SecondDecimationLog2
}

// ArchivedCount returns k = popcount(mask), the number of archived devices.
func (g *Geometry) ArchivedCount() int {
	return g.ArchiveMask.Popcount()
}

// Level1Count is the number of level-1 decimated samples per archived
// device per major block: major_sample_count >> D1.
func (g *Geometry) Level1Count() int {
	return g.MajorSampleCount >> uint(g.FirstDecimationLog2)
}

// MajorBlockSize is the on-disk byte size of one major block:
//
//	k * (major_sample_count * sizeof(sample) + level1_count * sizeof(decimated_sample))
func (g *Geometry) MajorBlockSize() int64 {
	k := int64(g.ArchivedCount())
	raw := int64(g.MajorSampleCount) * SampleSize
	l1 := int64(g.Level1Count()) * DecimatedSampleSize
	return k * (raw + l1)
}

// DDSampleCount is the number of level-2 (double-decimated) windows
// produced per major block: major_sample_count >> D.
func (g *Geometry) DDSampleCount() int {
	return g.MajorSampleCount >> uint(g.D())
}

// DDTotalCount is the exact length of the double-decimated table:
// major_block_count * dd_sample_count.
func (g *Geometry) DDTotalCount() int {
	return g.MajorBlockCount * g.DDSampleCount()
}

// InputDecimationCount is the number of level-1 windows per minor block:
// input_frame_count >> D1.
func (g *Geometry) InputDecimationCount() int {
	return g.InputFrameCount >> uint(g.FirstDecimationLog2)
}

// deviceStride is the number of bytes occupied by one archived device's
// column pair (raw samples followed by level-1 decimated samples) within
// a major block buffer.
func (g *Geometry) deviceStride() int64 {
	return int64(g.MajorSampleCount)*SampleSize + int64(g.Level1Count())*DecimatedSampleSize
}

// faDataOffset returns the byte offset, within one major block's buffer,
// of device w's raw sample at minor-block offset faOffset.
func (g *Geometry) faDataOffset(w, faOffset int) int64 {
	return int64(w)*g.deviceStride() + int64(faOffset)*SampleSize
}

// dDataOffset returns the byte offset, within one major block's buffer,
// of device w's level-1 decimated sample at decimated offset dOffset.
func (g *Geometry) dDataOffset(w, dOffset int) int64 {
	return int64(w)*g.deviceStride() + int64(g.MajorSampleCount)*SampleSize + int64(dOffset)*DecimatedSampleSize
}
