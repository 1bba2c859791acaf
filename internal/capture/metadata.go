package capture

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// Metadata is what the pipeline needs from the capture device. A DPI of 0
// means unknown.
type Metadata struct {
	Orientation int     `json:"orientation"`
	DPIX        float64 `json:"dpi_x,omitempty"`
	DPIY        float64 `json:"dpi_y,omitempty"`
}

// Oriented returns the metadata of the image after its orientation has been
// applied. Orientations 5 to 8 transpose the axes.
func (m Metadata) Oriented() Metadata {
	if m.Orientation >= 5 && m.Orientation <= 8 {
		m.DPIX, m.DPIY = m.DPIY, m.DPIX
	}
	m.Orientation = 1
	return m
}

// ReadMetadata extracts orientation and resolution from EXIF, falling back
// to a PNG pHYs chunk for resolution. It never fails; missing data yields
// orientation 1 and unknown DPI.
func ReadMetadata(data []byte) Metadata {
	meta := Metadata{Orientation: 1}
	if readExif(data, &meta) {
		return meta
	}
	if dpi, ok := pngDPI(data); ok {
		meta.DPIX, meta.DPIY = dpi, dpi
	}
	return meta
}

func readExif(data []byte, meta *Metadata) bool {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return false
	}

	im := exifcommon.NewIfdMapping()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return false
	}
	ti := exif.NewTagIndex()
	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil || index.RootIfd == nil {
		return false
	}
	root := index.RootIfd

	if v, ok := firstUint16(root, "Orientation"); ok && v >= 1 && v <= 8 {
		meta.Orientation = int(v)
	}
	meta.DPIX = firstRational(root, "XResolution")
	meta.DPIY = firstRational(root, "YResolution")
	if unit, ok := firstUint16(root, "ResolutionUnit"); ok && unit == 3 {
		// centimeters
		meta.DPIX *= 2.54
		meta.DPIY *= 2.54
	}
	return true
}

func firstUint16(ifd *exif.Ifd, name string) (uint16, bool) {
	tags, err := ifd.FindTagWithName(name)
	if err != nil || len(tags) == 0 {
		return 0, false
	}
	val, err := tags[0].Value()
	if err != nil {
		return 0, false
	}
	switch v := val.(type) {
	case []uint16:
		if len(v) > 0 {
			return v[0], true
		}
	case uint16:
		return v, true
	}
	return 0, false
}

func firstRational(ifd *exif.Ifd, name string) float64 {
	tags, err := ifd.FindTagWithName(name)
	if err != nil || len(tags) == 0 {
		return 0
	}
	val, err := tags[0].Value()
	if err != nil {
		return 0
	}
	if rats, ok := val.([]exifcommon.Rational); ok && len(rats) > 0 && rats[0].Denominator != 0 {
		return float64(rats[0].Numerator) / float64(rats[0].Denominator)
	}
	return 0
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// pngDPI reads the pHYs chunk of a PNG. Only the meter unit is meaningful.
func pngDPI(data []byte) (float64, bool) {
	if !bytes.HasPrefix(data, pngSignature) {
		return 0, false
	}
	buf := bytes.NewReader(data[len(pngSignature):])
	for {
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return 0, false
		}
		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(buf, chunkType); err != nil {
			return 0, false
		}

		switch string(chunkType) {
		case "pHYs":
			var phys struct {
				PerUnitX, PerUnitY uint32
				Unit               byte
			}
			if err := binary.Read(buf, binary.BigEndian, &phys); err != nil {
				return 0, false
			}
			if phys.Unit != 1 || phys.PerUnitX == 0 {
				return 0, false
			}
			return float64(phys.PerUnitX) * 0.0254, true
		case "IDAT", "IEND":
			// pHYs must precede image data
			return 0, false
		}

		if _, err := buf.Seek(int64(length)+4, io.SeekCurrent); err != nil {
			return 0, false
		}
	}
}
