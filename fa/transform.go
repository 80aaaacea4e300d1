package fa

import (
	"sync"

	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Transform engine: double-buffered transpose, level-1 and
 *		level-2 decimation, and index update. Runs inline on the
 *		sniffer goroutine per spec.md section 2's data flow. See
 *		spec.md section 4.4.
 *
 *------------------------------------------------------------------*/

// TimestampIIR is the single-pole IIR coefficient for smoothing
// header.LastDuration across major blocks.
const TimestampIIR = 0.1

// Transform owns the header, index, double-decimated area and the pair
// of major-block buffers, replacing the teacher's scattered package
// globals with one value passed explicitly to the sniffer and reader
// goroutines (spec.md section 9 design note).
type Transform struct {
	mu sync.Mutex // guards header.CurrentMajorBlock, dataIndex, ddArea, header.LastDuration

	header    *DiskHeader
	dataIndex []IndexEntry
	ddArea    []DecimatedSample // row-major (device, dd_offset), len k*DDTotalCount

	buffers       [2][]byte
	currentBuffer int
	faOffset      int
	dOffset       int
	ddOffset      int

	k              int // archived device count
	d2accum        []Accumulator
	timestampArray []int32
	timestampIndex int
	firstTimestamp uint64

	writeQueue *BlockQueue
	log        *log.Logger
}

// NewTransform allocates the buffers, index and accumulators for header
// and wires requests for completed major blocks to queue.
func NewTransform(header *DiskHeader, queue *BlockQueue) *Transform {
	k := header.ArchivedCount()
	t := &Transform{
		header:     header,
		dataIndex:  make([]IndexEntry, header.MajorBlockCount),
		ddArea:     make([]DecimatedSample, k*header.DDTotalCount()),
		k:          k,
		d2accum:    make([]Accumulator, k),
		writeQueue: queue,
		log:        log.With("component", "transform"),
	}
	blockSize := int(header.MajorBlockSize())
	t.buffers[0] = make([]byte, blockSize)
	t.buffers[1] = make([]byte, blockSize)
	timestampCount := header.MajorSampleCount / header.InputFrameCount
	t.timestampArray = make([]int32, timestampCount)
	t.resetDoubleDecimation()
	return t
}

// ProcessBlock processes one minor block of raw sniffer frames. A nil
// raw signals an upstream gap: the partially built major block and the
// in-progress double-decimation accumulators are discarded.
func (t *Transform) ProcessBlock(raw []byte, timestamp uint64) {
	if raw == nil {
		t.resetBlock()
		t.resetIndex()
		t.resetDoubleDecimation()
		return
	}

	t.indexMinorBlock(raw, timestamp)
	t.transposeBlock(raw)
	t.decimateBlock(raw)
	mustWrite := t.advanceBlock()

	decimation := 1 << uint(t.header.D())
	if t.faOffset&(decimation-1) == 0 {
		t.doubleDecimateBlock()
	}

	if mustWrite {
		t.mu.Lock()
		t.writeMajorBlock()
		t.advanceIndex()
		t.mu.Unlock()
	}
}

func (t *Transform) inputFrameCount() int { return t.header.InputFrameCount }

// transposeBlock copies each archived device's column of
// input_frame_count samples into its buffer region at the current
// fa_offset.
func (t *Transform) transposeBlock(raw []byte) {
	n := t.header.FaEntryCount
	buf := t.buffers[t.currentBuffer]
	w := 0
	for id := 0; id < n; id++ {
		if !t.header.ArchiveMask.Test(id) {
			continue
		}
		for i := 0; i < t.inputFrameCount(); i++ {
			s := getSample(raw, int64(i*n+id)*SampleSize)
			putSample(buf, t.header.faDataOffset(w, t.faOffset+i), s)
		}
		w++
	}
}

// decimateBlock folds each archived device's column into level-1
// decimated samples and merges the level-1 accumulator into the running
// level-2 accumulator.
func (t *Transform) decimateBlock(raw []byte) {
	n := t.header.FaEntryCount
	buf := t.buffers[t.currentBuffer]
	d1 := t.header.FirstDecimationLog2
	windowSize := 1 << uint(d1)
	windows := t.inputFrameCount() >> uint(d1)

	w := 0
	for id := 0; id < n; id++ {
		if !t.header.ArchiveMask.Test(id) {
			continue
		}
		for win := 0; win < windows; win++ {
			acc := NewAccumulator()
			base := (win*windowSize)*n + id
			for i := 0; i < windowSize; i++ {
				acc.Accum(getSample(raw, int64(base+i*n)*SampleSize))
			}
			result := acc.Finalize(d1)
			putDecimated(buf, t.header.dDataOffset(w, t.dOffset+win), result)
			t.d2accum[w].Merge(acc)
		}
		w++
	}
}

// advanceBlock advances the minor-block offsets and reports whether the
// major block is now full.
func (t *Transform) advanceBlock() bool {
	t.faOffset += t.inputFrameCount()
	t.dOffset += t.inputFrameCount() >> uint(t.header.FirstDecimationLog2)
	return t.faOffset >= t.header.MajorSampleCount
}

func (t *Transform) resetBlock() {
	t.faOffset = 0
	t.dOffset = 0
}

// writeMajorBlock schedules the filled buffer for writing and switches to
// the alternate buffer. Must be called with mu held.
func (t *Transform) writeMajorBlock() {
	offset := t.header.MajorDataStart + int64(t.header.CurrentMajorBlock)*t.header.MajorBlockSize()
	ok := t.writeQueue.TrySend(WriteRequest{Offset: offset, Data: t.buffers[t.currentBuffer]})
	if !ok {
		t.log.Warn("disk writer has fallen behind, dropping sniffer data", "block", t.header.CurrentMajorBlock)
	}
	t.currentBuffer = 1 - t.currentBuffer
	t.resetBlock()
}

// doubleDecimateBlock finalizes each device's level-2 accumulator into
// the double-decimated area and advances the circular dd_offset.
func (t *Transform) doubleDecimateBlock() {
	decimationLog2 := t.header.FirstDecimationLog2 + t.header.SecondDecimationLog2
	ddTotal := t.header.DDTotalCount()
	for w := 0; w < t.k; w++ {
		t.ddArea[w*ddTotal+t.ddOffset] = t.d2accum[w].Finalize(decimationLog2)
		t.d2accum[w] = NewAccumulator()
	}
	t.ddOffset = (t.ddOffset + 1) % ddTotal
}

func (t *Transform) resetDoubleDecimation() {
	t.ddOffset = t.header.CurrentMajorBlock * t.header.DDSampleCount()
	for w := range t.d2accum {
		t.d2accum[w] = NewAccumulator()
	}
}

// indexMinorBlock records this minor block's timestamp and, for the
// first minor block of a major block, the id_zero witness.
func (t *Transform) indexMinorBlock(raw []byte, timestamp uint64) {
	if t.timestampIndex == 0 {
		t.firstTimestamp = timestamp
		t.dataIndex[t.header.CurrentMajorBlock].IDZero = getSample(raw, 0).X
	}
	t.timestampArray[t.timestampIndex] = int32(timestamp - t.firstTimestamp)
	t.timestampIndex++
}

func (t *Transform) resetIndex() {
	t.timestampIndex = 0
}

// advanceIndex fits a line through this major block's timestamps and
// completes its index entry. Must be called with mu held.
//
// The fit is evaluated in floating point rather than with the truncating
// integer division of the reference implementation: at microsecond
// resolution the difference is well under one count, and working in
// float64 avoids a systematic truncation bias in the start-timestamp
// estimate (see DESIGN.md).
func (t *Transform) advanceIndex() {
	T := int64(len(t.timestampArray))
	var sumX, sumXT int64
	for i, x := range t.timestampArray {
		tt := int64(2*i) - T + 1
		sumXT += int64(x) * tt
		sumX += int64(x)
	}
	sumT2 := float64((T*T - 1) * T / 3)

	duration := 2 * float64(T) * float64(sumXT) / sumT2
	timestamp := float64(t.firstTimestamp) +
		float64(sumX)/float64(T) - float64(T+1)*float64(sumXT)/sumT2

	ix := &t.dataIndex[t.header.CurrentMajorBlock]
	ix.Duration = uint32(roundHalfAwayFromZero(duration))
	ix.Timestamp = uint64(roundHalfAwayFromZero(timestamp))

	t.header.LastDuration = uint32(roundHalfAwayFromZero(
		duration*TimestampIIR + float64(t.header.LastDuration)*(1-TimestampIIR)))

	t.header.CurrentMajorBlock = (t.header.CurrentMajorBlock + 1) % t.header.MajorBlockCount
	t.timestampIndex = 0
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}
