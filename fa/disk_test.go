package fa

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CreateArchiveFile_OpenArchiveFile_RoundTrips(t *testing.T) {
	var mask Mask
	mask.Set(0)
	mask.Set(3)
	g := Geometry{
		FaEntryCount:         8,
		InputFrameCount:      4,
		MajorSampleCount:     16,
		FirstDecimationLog2:  2,
		SecondDecimationLog2: 1,
		MajorBlockCount:      3,
		ArchiveMask:          mask,
	}

	path := filepath.Join(t.TempDir(), "archive.dat")
	created, err := CreateArchiveFile(path, g)
	require.NoError(t, err)

	got, size, err := OpenArchiveFile(path)
	require.NoError(t, err)

	assert.Equal(t, created.Geometry, got.Geometry)
	assert.Equal(t, created.MajorDataStart, got.MajorDataStart)
	assert.Equal(t, created.DataSize, got.DataSize)
	assert.Equal(t, created.MajorDataStart+created.DataSize, size)
	assert.Equal(t, DiskMagic, got.Magic)
}

func Test_OpenArchiveFile_RejectsTruncatedFile(t *testing.T) {
	var mask Mask
	mask.Set(0)
	g := Geometry{
		FaEntryCount:     8,
		InputFrameCount:  1,
		MajorSampleCount: 4,
		MajorBlockCount:  4,
		ArchiveMask:      mask,
	}
	path := filepath.Join(t.TempDir(), "archive.dat")
	_, err := CreateArchiveFile(path, g)
	require.NoError(t, err)

	require.NoError(t, os.Truncate(path, DiskHeaderSize))

	_, _, err = OpenArchiveFile(path)
	assert.ErrorIs(t, err, ErrHeaderInvalid)
}
