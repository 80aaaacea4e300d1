package fa

import "encoding/binary"

/*------------------------------------------------------------------
 *
 * Purpose:	Packed little-endian encode/decode of Sample and
 *		DecimatedSample into major-block buffers, matching the
 *		on-disk layout of spec.md section 3.
 *
 *------------------------------------------------------------------*/

func putSample(buf []byte, off int64, s Sample) {
	binary.LittleEndian.PutUint32(buf[off:], uint32(s.X))
	binary.LittleEndian.PutUint32(buf[off+4:], uint32(s.Y))
}

func getSample(buf []byte, off int64) Sample {
	return Sample{
		X: int32(binary.LittleEndian.Uint32(buf[off:])),
		Y: int32(binary.LittleEndian.Uint32(buf[off+4:])),
	}
}

func putDecimated(buf []byte, off int64, d DecimatedSample) {
	binary.LittleEndian.PutUint32(buf[off:], uint32(d.MinX))
	binary.LittleEndian.PutUint32(buf[off+4:], uint32(d.MaxX))
	binary.LittleEndian.PutUint32(buf[off+8:], uint32(d.MinY))
	binary.LittleEndian.PutUint32(buf[off+12:], uint32(d.MaxY))
	binary.LittleEndian.PutUint32(buf[off+16:], uint32(d.MeanX))
	binary.LittleEndian.PutUint32(buf[off+20:], uint32(d.MeanY))
	binary.LittleEndian.PutUint32(buf[off+24:], uint32(d.StdX))
	binary.LittleEndian.PutUint32(buf[off+28:], uint32(d.StdY))
}

func getDecimated(buf []byte, off int64) DecimatedSample {
	return DecimatedSample{
		MinX:  int32(binary.LittleEndian.Uint32(buf[off:])),
		MaxX:  int32(binary.LittleEndian.Uint32(buf[off+4:])),
		MinY:  int32(binary.LittleEndian.Uint32(buf[off+8:])),
		MaxY:  int32(binary.LittleEndian.Uint32(buf[off+12:])),
		MeanX: int32(binary.LittleEndian.Uint32(buf[off+16:])),
		MeanY: int32(binary.LittleEndian.Uint32(buf[off+20:])),
		StdX:  int32(binary.LittleEndian.Uint32(buf[off+24:])),
		StdY:  int32(binary.LittleEndian.Uint32(buf[off+28:])),
	}
}
