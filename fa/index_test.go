package fa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_BinarySearch_And_TimestampToBlock_S4 verifies the worked lookup
// example: four major blocks with {t,d} = {100,100},{200,100},{300,100},
// {400,100} and current=3.
func Test_BinarySearch_And_TimestampToBlock_S4(t *testing.T) {
	var mask Mask
	mask.Set(0)
	g := Geometry{
		FaEntryCount:     1,
		InputFrameCount:  1,
		MajorSampleCount: 100,
		MajorBlockCount:  8,
		ArchiveMask:      mask,
	}
	header, err := NewDiskHeader(g)
	require.NoError(t, err)
	header.CurrentMajorBlock = 3

	// Indices 4..7 are left at their zero value (duration 0), representing
	// major blocks not yet written; binarySearch's zero-duration check
	// keeps these from masquerading as valid results.
	xf := NewTransform(header, NewBlockQueue(1))
	xf.dataIndex[0] = IndexEntry{Timestamp: 100, Duration: 100}
	xf.dataIndex[1] = IndexEntry{Timestamp: 200, Duration: 100}
	xf.dataIndex[2] = IndexEntry{Timestamp: 300, Duration: 100}
	xf.dataIndex[3] = IndexEntry{Timestamp: 400, Duration: 100}

	assert.Equal(t, 1, xf.BinarySearch(250))

	block, offset := xf.TimestampToBlock(250, false)
	assert.Equal(t, 1, block)
	assert.Equal(t, 50*g.MajorSampleCount/100, offset)
}

func Test_TimestampToStart_RejectsCurrentBlock(t *testing.T) {
	var mask Mask
	mask.Set(0)
	g := Geometry{
		FaEntryCount:     1,
		InputFrameCount:  1,
		MajorSampleCount: 100,
		MajorBlockCount:  8,
		ArchiveMask:      mask,
	}
	header, err := NewDiskHeader(g)
	require.NoError(t, err)
	header.CurrentMajorBlock = 3

	xf := NewTransform(header, NewBlockQueue(1))
	xf.dataIndex[0] = IndexEntry{Timestamp: 100, Duration: 100}
	xf.dataIndex[1] = IndexEntry{Timestamp: 200, Duration: 100}
	xf.dataIndex[2] = IndexEntry{Timestamp: 300, Duration: 100}
	xf.dataIndex[3] = IndexEntry{Timestamp: 400, Duration: 100}

	_, _, _, err = xf.TimestampToStart(450, false)
	assert.ErrorIs(t, err, ErrTimestampStartTooLate)
}
