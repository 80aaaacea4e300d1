package fa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewDiskHeader_ComputesMajorBlockSize_Invariant2(t *testing.T) {
	var mask Mask
	for _, id := range []int{2, 5, 9, 100} {
		mask.Set(id)
	}
	g := Geometry{
		FaEntryCount:         256,
		InputFrameCount:      64,
		MajorSampleCount:     1024,
		FirstDecimationLog2:  3,
		SecondDecimationLog2: 2,
		MajorBlockCount:      16,
		ArchiveMask:          mask,
	}
	h, err := NewDiskHeader(g)
	require.NoError(t, err)

	k := int64(4)
	want := k * (int64(g.MajorSampleCount)*SampleSize + int64(g.MajorSampleCount>>g.FirstDecimationLog2)*DecimatedSampleSize)
	assert.Equal(t, want, h.MajorBlockSize())
}

func Test_NewDiskHeader_RejectsEmptyMask(t *testing.T) {
	_, err := NewDiskHeader(Geometry{
		FaEntryCount:     8,
		InputFrameCount:  1,
		MajorSampleCount: 1,
		MajorBlockCount:  1,
	})
	assert.ErrorIs(t, err, ErrHeaderInvalid)
}

func Test_NewDiskHeader_RejectsMisalignedMajorSampleCount(t *testing.T) {
	var mask Mask
	mask.Set(0)
	_, err := NewDiskHeader(Geometry{
		FaEntryCount:         8,
		InputFrameCount:      4,
		MajorSampleCount:     6, // not a multiple of input_frame_count << D1
		FirstDecimationLog2:  1,
		MajorBlockCount:      1,
		ArchiveMask:          mask,
	})
	assert.ErrorIs(t, err, ErrHeaderInvalid)
}

func Test_DiskHeader_ValidateBlockSize(t *testing.T) {
	var mask Mask
	mask.Set(0)
	h, err := NewDiskHeader(Geometry{
		FaEntryCount:     8,
		InputFrameCount:  4,
		MajorSampleCount: 8,
		MajorBlockCount:  1,
		ArchiveMask:      mask,
	})
	require.NoError(t, err)

	assert.NoError(t, h.ValidateBlockSize(h.MajorBlockSize()))
	assert.Error(t, h.ValidateBlockSize(h.MajorBlockSize()+1))
}
