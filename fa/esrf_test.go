package fa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test_SignExtend14_ScalesByTwoToTheFour verifies signExtend14 against a
// hand-computed value: shifting the low 14 bits up to bit 31 and back
// down by 14 (not 18) places the sign-extended value at bits 4..17,
// i.e. scaled by 16, not a plain sign extension to bit 0.
func Test_SignExtend14_ScalesByTwoToTheFour(t *testing.T) {
	assert.Equal(t, int32(80), signExtend14(5))
	assert.Equal(t, int32(-16), signExtend14(0x3FFF)) // low 14 bits all set == -1
}

// Test_ESRFFilter_UnpacksViaIxInSelector exercises a single corrector id
// whose top 4 bits (ix_in) select where its high/low 14-bit halves land,
// per extract_esrf_correctors. id=241 with ix_in=0 writes ids 256/257;
// the high half comes from x>>14, the low half from x directly.
func Test_ESRFFilter_UnpacksViaIxInSelector(t *testing.T) {
	f := NewESRFFilter(512)
	raw := make([]byte, 512*SampleSize)

	// x = high14(5) in bits 14..27, low14(-1) in bits 0..13, ix_in(0) in bits 28..31.
	x := int32(5<<14) | 0x3FFF
	putSample(raw, int64(esrfCorrectorIDStart)*SampleSize, Sample{X: x, Y: 0})

	f.Apply(raw, 1, 512)

	high := getSample(raw, int64(esrfUnpackedIDStart)*SampleSize)
	low := getSample(raw, int64(esrfUnpackedIDStart+1)*SampleSize)
	assert.Equal(t, Sample{X: 80, Y: 0}, high)
	assert.Equal(t, Sample{X: -16, Y: 0}, low)
}

// Test_ESRFFilter_IxInPicksDestinationSlot checks that a nonzero ix_in
// (top 4 bits of x) relocates the written pair away from the id's
// default (ix_in=0) slot, per ix_out = 2*ix_in + 14*(id-241) + 256.
func Test_ESRFFilter_IxInPicksDestinationSlot(t *testing.T) {
	f := NewESRFFilter(512)
	raw := make([]byte, 512*SampleSize)

	id := esrfCorrectorIDStart + 1 // 242
	ixIn := int32(3)
	x := (ixIn << 28) | int32(7<<14) | 0x0001
	putSample(raw, int64(id)*SampleSize, Sample{X: x, Y: 0})

	f.Apply(raw, 1, 512)

	wantOut := esrfUnpackedIDStart + 2*int(ixIn) + esrfPack14*(id-esrfCorrectorIDStart)
	high := getSample(raw, int64(wantOut)*SampleSize)
	low := getSample(raw, int64(wantOut+1)*SampleSize)
	assert.Equal(t, int32(7*16), high.X)
	assert.Equal(t, int32(1*16), low.X)

	// The id=242 default slot (ix_in=0) must be untouched by this write.
	defaultOut := esrfUnpackedIDStart + esrfPack14*(id-esrfCorrectorIDStart)
	assert.Equal(t, Sample{}, getSample(raw, int64(defaultOut)*SampleSize))
}

// Test_ESRFFilter_CarriesUntouchedSlotsForward verifies the default,
// whole-table carry-forward (sniffer.c's memcpy(row+256, last_row, ...))
// ahead of the selective ix_in overwrite: a table slot no corrector id
// addresses this row keeps its previous value.
func Test_ESRFFilter_CarriesUntouchedSlotsForward(t *testing.T) {
	f := NewESRFFilter(512)
	f.lastRow[50] = Sample{X: 111, Y: 222}
	raw := make([]byte, 512*SampleSize)
	// ids 241..248 all zero: each has ix_in=0, touching only relative
	// offsets {0,1},{14,15},...,{98,99} — offset 50 is untouched.

	f.unpackRow(raw, 0)

	got := getSample(raw, int64(esrfUnpackedIDStart+50)*SampleSize)
	assert.Equal(t, Sample{X: 111, Y: 222}, got)
}

// Test_ESRFFilter_StashesTableAcrossCalls checks the table written by one
// Apply call becomes the carry-forward source for the next. id=243 with
// ix_in=11 lands on relative offset 50 (256+2*11+14*2), a slot no id
// addresses when every id's ix_in is 0 (as in raw2's all-zero rows), so
// raw2 must carry raw1's value there forward unchanged.
func Test_ESRFFilter_StashesTableAcrossCalls(t *testing.T) {
	f := NewESRFFilter(512)
	raw1 := make([]byte, 512*SampleSize)
	id := esrfCorrectorIDStart + 2 // 243
	ixIn := int32(11)
	x := (ixIn << 28) | int32(9<<14) | 5
	putSample(raw1, int64(id)*SampleSize, Sample{X: x, Y: 0})
	f.Apply(raw1, 1, 512)

	raw2 := make([]byte, 512*SampleSize) // second call, no fresh corrector data at all
	f.Apply(raw2, 1, 512)

	got := getSample(raw2, int64(esrfUnpackedIDStart+50)*SampleSize)
	assert.Equal(t, Sample{X: 9 * 16, Y: 0}, got, "offset 50 is never addressed by raw2's all ix_in=0 rows, so it must carry raw1's written value forward")
}

func Test_ESRFFilter_NoOpBelow512Entries(t *testing.T) {
	f := NewESRFFilter(256)
	raw := make([]byte, 256*SampleSize)
	putSample(raw, int64(esrfCorrectorIDStart)*SampleSize, Sample{X: 99, Y: 99})

	f.Apply(raw, 1, 256)

	got := getSample(raw, int64(esrfCorrectorIDStart)*SampleSize)
	assert.Equal(t, Sample{X: 99, Y: 99}, got, "below 512 entries the filter must leave the row untouched")
}
