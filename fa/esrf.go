package fa

/*------------------------------------------------------------------
 *
 * Purpose:	ESRF corrector-extraction prefilter: a facility-specific
 *		sample re-packing hack plugged in between the sniffer read
 *		and the transform, gated to N >= 512 archives. See spec.md
 *		section 4.7. Out of scope for any deployment not targeting
 *		that facility; included here only as an optional,
 *		explicitly-enabled Prefilter.
 *
 *------------------------------------------------------------------*/

// esrfMinEntries is the minimum fa_entry_count the hack is defined for.
const esrfMinEntries = 512

// esrfCorrectorIDStart is the first id at ids 241..248 carrying packed
// 14-bit corrector readings.
const esrfCorrectorIDStart = 241

// esrfCorrectorIDCount is the number of packed corrector ids per row.
const esrfCorrectorIDCount = 8

// esrfUnpackedIDStart is the first id of the unpacked destination table.
const esrfUnpackedIDStart = 256

// esrfUnpackedCount is the width of the unpacked destination table:
// 14 slots (7 ix_in-selected pairs) per corrector id.
const esrfUnpackedCount = esrfPack14 * esrfCorrectorIDCount

// esrfPack14 is the bit width of one packed corrector reading.
const esrfPack14 = 14

// Prefilter mutates a raw minor block in place before it reaches the
// transform. ESRFFilter is the only implementation; a no-op pass-through
// is simply omitting the prefilter entirely.
type Prefilter interface {
	Apply(raw []byte, frameCount, faEntryCount int)
}

// ESRFFilter unpacks ids 241..248's packed corrector readings into the
// esrfUnpackedCount-wide table starting at id 256, and carries the
// previous row's entire unpacked table forward by default, selectively
// overwriting only the ix_in-addressed slots each row touches. The last
// row's table is stashed across calls. Valid only for archives with
// fa_entry_count >= 512, per spec.md section 4.7. Grounded on
// sniffer.c's extract_esrf_correctors.
type ESRFFilter struct {
	lastRow []Sample // esrfUnpackedCount entries, carried across Apply calls
}

// NewESRFFilter returns a filter with a zeroed carried-forward table; the
// first row of the first call after creation carries forward zeros.
func NewESRFFilter(faEntryCount int) *ESRFFilter {
	return &ESRFFilter{lastRow: make([]Sample, esrfUnpackedCount)}
}

// Apply rewrites raw in place. frameCount is the number of rows (input
// frames) in raw; faEntryCount is N, the row stride in samples.
func (f *ESRFFilter) Apply(raw []byte, frameCount, faEntryCount int) {
	if faEntryCount < esrfMinEntries {
		return
	}
	rowStride := int64(faEntryCount) * SampleSize
	for i := 0; i < frameCount; i++ {
		f.unpackRow(raw, int64(i)*rowStride)
	}
}

// unpackRow first carries the previous row's unpacked table forward in
// full, then overwrites each corrector id's ix_in-selected pair of slots
// with its sign-extended high and low 14-bit halves, and finally stashes
// this row's table as the carry-forward source for the next call.
func (f *ESRFFilter) unpackRow(raw []byte, rowOff int64) {
	tableOff := rowOff + int64(esrfUnpackedIDStart)*SampleSize
	for i, s := range f.lastRow {
		putSample(raw, tableOff+int64(i)*SampleSize, s)
	}

	for id := esrfCorrectorIDStart; id < esrfCorrectorIDStart+esrfCorrectorIDCount; id++ {
		entry := getSample(raw, rowOff+int64(id)*SampleSize)
		ixIn := int((entry.X >> 28) & 0xF)
		ixOut := esrfUnpackedIDStart + 2*ixIn + esrfPack14*(id-esrfCorrectorIDStart)

		putSample(raw, rowOff+int64(ixOut)*SampleSize, Sample{
			X: signExtend14(entry.X >> 14),
			Y: signExtend14(entry.Y >> 14),
		})
		putSample(raw, rowOff+int64(ixOut+1)*SampleSize, Sample{
			X: signExtend14(entry.X),
			Y: signExtend14(entry.Y),
		})
	}

	for i := range f.lastRow {
		f.lastRow[i] = getSample(raw, tableOff+int64(i)*SampleSize)
	}
}

// signExtend14 reproduces extract_esrf_correctors's sign_extend exactly:
// shifting the low 14 bits of v up to the top of a 32-bit word and back
// down by 14 (not 18) sign-extends them into bits 4..17 of the result,
// i.e. the sign-extended 14-bit value scaled by 16. This is the source
// facility's actual encoding, not a simplified sign-extension.
func signExtend14(v int32) int32 {
	const toTop = 32 - esrfPack14
	return int32(uint32(v)<<toTop) >> esrfPack14
}
