package fa

/*------------------------------------------------------------------
 *
 * Purpose:	Index lookup: binary search from timestamp to major block,
 *		timestamp-to-offset conversion, and gap detection walking
 *		the index forward. See spec.md section 4.5.
 *
 *------------------------------------------------------------------*/

// IndexSkip is the number of oldest-but-valid blocks hidden from readers,
// a heuristic to keep them safe against concurrent overwrite during a
// long read. Not proven safe for all major_block_count values (see
// spec.md section 9 Open Questions) — treat as tunable.
const IndexSkip = 2

// MaxDeltaT is the maximum inter-block timestamp delta, in microseconds,
// before FindGap reports a gap.
const MaxDeltaT = 1000

// BinarySearch returns the index of the latest valid block with a
// starting timestamp no later than timestamp, excluding the current
// (in-progress) block. Must be called with mu held.
func (t *Transform) binarySearch(timestamp uint64) int {
	n := t.header.MajorBlockCount
	current := t.header.CurrentMajorBlock
	low := (current + 1 + IndexSkip) % n
	high := current
	for (low+1)%n != high {
		var mid int
		if low < high {
			mid = (low + high) / 2
		} else {
			mid = ((low + high + n) / 2) % n
		}
		if timestamp < t.dataIndex[mid].Timestamp {
			high = mid
		} else {
			low = mid
		}
	}
	if t.dataIndex[low].Duration == 0 {
		// Archive is empty at the low end; don't return a start-of-archive
		// placeholder block.
		return high
	}
	return low
}

// BinarySearch is the exported, locked form of binarySearch.
func (t *Transform) BinarySearch(timestamp uint64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.binarySearch(timestamp)
}

// GetEarliestTimestamp returns the timestamp of the oldest readable
// block.
func (t *Transform) GetEarliestTimestamp() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dataIndex[t.binarySearch(1)].Timestamp
}

// TimestampToBlock returns the block and sample offset within that block
// nearest to timestamp. If skipGap, a timestamp that falls in a gap
// after a block advances to the start of the next block; otherwise it
// points at the last sample of the block.
func (t *Transform) timestampToBlock(timestamp uint64, skipGap bool) (block, offset int) {
	block = t.binarySearch(timestamp)
	ix := t.dataIndex[block]
	blockSize := t.header.MajorSampleCount
	switch {
	case timestamp < ix.Timestamp:
		offset = 0
	case timestamp-ix.Timestamp < uint64(ix.Duration):
		offset = int((timestamp - ix.Timestamp) * uint64(blockSize) / uint64(ix.Duration))
	case skipGap:
		block = (block + 1) % t.header.MajorBlockCount
		offset = 0
	default:
		offset = blockSize - 1
	}
	return block, offset
}

// TimestampToBlock is the exported, locked form of timestampToBlock.
func (t *Transform) TimestampToBlock(timestamp uint64, skipGap bool) (block, offset int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timestampToBlock(timestamp, skipGap)
}

// computeSamples returns the number of samples available from block:offset
// to the current end of the archive. Must be called with mu held.
func (t *Transform) computeSamples(block, offset int) uint64 {
	current := t.header.CurrentMajorBlock
	n := t.header.MajorBlockCount
	var blockCount int
	if current >= block {
		blockCount = current - block
	} else {
		blockCount = n - block + current
	}
	return uint64(blockCount)*uint64(t.header.MajorSampleCount) - uint64(offset)
}

// TimestampToStart resolves a read-start timestamp to a block, offset and
// the number of samples available from there to the current end of the
// archive.
func (t *Transform) TimestampToStart(timestamp uint64, allData bool) (block, offset int, samplesAvailable uint64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	block, offset = t.timestampToBlock(timestamp, true)
	if block == t.header.CurrentMajorBlock {
		return 0, 0, 0, ErrTimestampStartTooLate
	}
	if !allData && t.dataIndex[block].Timestamp > timestamp {
		return 0, 0, 0, ErrTimestampInGap
	}
	return block, offset, t.computeSamples(block, offset), nil
}

// TimestampToEnd resolves a read-end timestamp to a block and offset.
func (t *Transform) TimestampToEnd(timestamp uint64, allData bool) (block, offset int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	block, offset = t.timestampToBlock(timestamp, false)
	ix := t.dataIndex[block]
	endTimestamp := ix.Timestamp + uint64(ix.Duration)
	if !allData && timestamp > endTimestamp {
		return block, offset, ErrTimestampEndTooLate
	}
	return block, offset, nil
}

// FindGap walks forward from *start for up to *blocks-1 steps, looking
// for either an inter-block timestamp delta exceeding MaxDeltaT or, if
// checkID0, an id_zero discontinuity. It reports the first gap found and
// leaves *start at the block where it was detected.
func (t *Transform) FindGap(checkID0 bool, start *int, blocks *int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	ix := t.dataIndex[*start]
	timestamp := ix.Timestamp + uint64(ix.Duration)
	idZero := ix.IDZero + int32(t.header.MajorSampleCount)
	for *blocks > 1 {
		*blocks--
		*start++
		if *start == t.header.MajorBlockCount {
			*start = 0
		}

		ix = t.dataIndex[*start]
		deltaT := int64(ix.Timestamp) - int64(timestamp)
		if (checkID0 && ix.IDZero != idZero) || deltaT < -MaxDeltaT || deltaT > MaxDeltaT {
			return true
		}

		timestamp = ix.Timestamp + uint64(ix.Duration)
		idZero = ix.IDZero + int32(t.header.MajorSampleCount)
	}
	return false
}

// ReadIndex returns a copy of the index entry at ix.
func (t *Transform) ReadIndex(ix int) IndexEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dataIndex[ix]
}

// Header returns the (read-mostly) disk header.
func (t *Transform) Header() *DiskHeader {
	return t.header
}

// DDArea returns the double-decimated table.
func (t *Transform) DDArea() []DecimatedSample {
	return t.ddArea
}
