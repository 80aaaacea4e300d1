package fa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransform(t *testing.T, g Geometry) *Transform {
	t.Helper()
	header, err := NewDiskHeader(g)
	require.NoError(t, err)
	return NewTransform(header, NewBlockQueue(4))
}

// Test_TransposeBlock_S1 verifies the worked transpose example: N=4, k=4,
// input_frame_count=2, two frames of four devices each, transposed into
// per-device columns.
func Test_TransposeBlock_S1(t *testing.T) {
	var mask Mask
	for id := 0; id < 4; id++ {
		mask.Set(id)
	}
	g := Geometry{
		FaEntryCount:     4,
		InputFrameCount:  2,
		MajorSampleCount: 2,
		MajorBlockCount:  2,
		ArchiveMask:      mask,
	}
	xf := newTestTransform(t, g)

	raw := make([]byte, 2*4*SampleSize)
	frame0 := []Sample{{1, 2}, {3, 4}, {5, 6}, {7, 8}}
	frame1 := []Sample{{9, 10}, {11, 12}, {13, 14}, {15, 16}}
	for id, s := range frame0 {
		putSample(raw, int64(id)*SampleSize, s)
	}
	for id, s := range frame1 {
		putSample(raw, int64(4+id)*SampleSize, s)
	}

	xf.transposeBlock(raw)

	buf := xf.buffers[xf.currentBuffer]
	want := [][2]Sample{
		{{1, 2}, {9, 10}},
		{{3, 4}, {11, 12}},
		{{5, 6}, {13, 14}},
		{{7, 8}, {15, 16}},
	}
	for w, col := range want {
		for faOffset, s := range col {
			got := getSample(buf, xf.header.faDataOffset(w, faOffset))
			assert.Equal(t, s, got, "device %d offset %d", w, faOffset)
		}
	}
}

// Test_AdvanceIndex_S3 verifies the worked index regression example.
func Test_AdvanceIndex_S3(t *testing.T) {
	var mask Mask
	mask.Set(0)
	g := Geometry{
		FaEntryCount:     1,
		InputFrameCount:  1,
		MajorSampleCount: 4,
		MajorBlockCount:  2,
		ArchiveMask:      mask,
	}
	xf := newTestTransform(t, g)

	raw := make([]byte, SampleSize)
	putSample(raw, 0, Sample{X: 77})

	for _, ts := range []uint64{100, 200, 350, 400} {
		xf.indexMinorBlock(raw, ts)
	}
	xf.advanceIndex()

	ix := xf.dataIndex[0]
	assert.Equal(t, uint64(100), ix.Timestamp)
	assert.Equal(t, uint32(420), ix.Duration)
	assert.Equal(t, int32(77), ix.IDZero)
	assert.Equal(t, 1, xf.header.CurrentMajorBlock)
}

// Test_ProcessBlock_GapResetsAndIsDetected runs S3's major block through
// ProcessBlock, delivers a gap (S6), then a second major block with a
// discontinuous id_zero, and checks FindGap reports the transition.
func Test_ProcessBlock_GapResetsAndIsDetected(t *testing.T) {
	var mask Mask
	mask.Set(0)
	g := Geometry{
		FaEntryCount:     1,
		InputFrameCount:  1,
		MajorSampleCount: 4,
		MajorBlockCount:  4,
		ArchiveMask:      mask,
	}
	xf := newTestTransform(t, g)

	frame := func(idZero int32) []byte {
		raw := make([]byte, SampleSize)
		putSample(raw, 0, Sample{X: idZero})
		return raw
	}

	for _, ts := range []uint64{100, 200, 350, 400} {
		xf.ProcessBlock(frame(10), ts)
	}
	require.Equal(t, 1, xf.header.CurrentMajorBlock)
	require.Equal(t, int32(10), xf.dataIndex[0].IDZero)

	// S6: a gap arrives mid-block (here, before any frame of the next
	// block has been accumulated); the partial state must reset cleanly.
	xf.ProcessBlock(nil, 0)
	assert.Equal(t, 0, xf.faOffset)
	assert.Equal(t, 0, xf.timestampIndex)

	for _, ts := range []uint64{500, 600, 750, 800} {
		xf.ProcessBlock(frame(99), ts)
	}
	require.Equal(t, 2, xf.header.CurrentMajorBlock)
	require.Equal(t, int32(99), xf.dataIndex[1].IDZero)

	start, blocks := 0, 2
	found := xf.FindGap(true, &start, &blocks)
	assert.True(t, found, "id_zero discontinuity between blocks 0 and 1 must be detected")
	assert.Equal(t, 1, start)
}
