package dng

import (
	"fmt"

	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/correct"
	"github.com/alxayo/mlvfs-core/internal/mlv/frameheader"
)

// Software/Make are the fixed ASCII tag values emitted into every still
// image.
const (
	tagSoftwareValue = "mlvfs-core"
	tagMakeValue     = "mlvfs-core"
)

// Image is the result of Emit: the fixed header/metadata region (TIFF
// header, all three IFDs' directories and extra data, and the embedded
// thumbnail pixels) plus a lazy reader for the — potentially large — main
// image strip that follows it. A caller serving byte ranges never needs
// to materialize the main strip into the Header slice.
type Image struct {
	Header      []byte
	Strip       *StripReader
	StripOffset int64
	TotalSize   int64
}

// ReadAt implements io.ReaderAt over the whole synthesized file by
// dispatching into Header or Strip depending on the requested range.
func (img *Image) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= img.TotalSize {
		return 0, fmt.Errorf("dng: offset %d out of range [0,%d)", off, img.TotalSize)
	}
	n := 0
	for n < len(p) && off+int64(n) < img.TotalSize {
		pos := off + int64(n)
		if pos < img.StripOffset {
			avail := img.StripOffset - pos
			chunk := int64(len(p) - n)
			if chunk > avail {
				chunk = avail
			}
			copy(p[n:int64(n)+chunk], img.Header[pos:pos+chunk])
			n += int(chunk)
			continue
		}
		m, err := img.Strip.ReadAt(p[n:], pos-img.StripOffset)
		n += m
		if err != nil && m == 0 {
			return n, err
		}
		break
	}
	return n, nil
}

// Emit builds the three-IFD TIFF/DNG still image for one video frame
// (spec §4.4). buf is the already unpacked (and, if the pipeline ran,
// corrected) 16-bit Bayer buffer for this frame.
func Emit(bundle *frameheader.Bundle, buf *correct.Buffer) (*Image, error) {
	rawi := bundle.RAWI.RawInfo

	thumb, err := BuildThumbnail(buf, int(rawi.ActiveArea.X), int(rawi.ActiveArea.Y),
		int(rawi.ActiveArea.Width), int(rawi.ActiveArea.Height), int32(rawi.BlackLevel), int32(rawi.WhiteLevel), rawi.CFAPattern)
	if err != nil {
		return nil, err
	}
	opcodes := BuildFixBadPixelsConstantOpcodeList(uint32(rawi.BlackLevel), uint32(rawi.CFAPattern))

	ifd0Entries := ifd0EntryTemplate()
	subEntries := subIFDEntryTemplate(bundle, rawi, opcodes)
	exifEntries := exifIFDEntryTemplate(bundle)

	ifd0 := NewIFD(ifd0Entries)
	sub := NewIFD(subEntries)
	exif := NewIFD(exifEntries)

	const headerSize = 8
	ifd0DirOff := int64(headerSize)
	subDirOff := ifd0DirOff + ifd0.DirectorySize()
	exifDirOff := subDirOff + sub.DirectorySize()
	extraOff := exifDirOff + exif.DirectorySize()
	ifd0ExtraSize := ifd0.ExtraDataSize()
	subExtraOff := extraOff + ifd0ExtraSize
	subExtraSize := sub.ExtraDataSize()
	exifExtraOff := subExtraOff + subExtraSize
	exifExtraSize := exif.ExtraDataSize()
	thumbOff := exifExtraOff + exifExtraSize

	setEntryValue(ifd0Entries, TagSubIFDs, LongValue(uint32(subDirOff)))
	setEntryValue(ifd0Entries, TagStripOffsets, LongValue(uint32(thumbOff)))
	setEntryValue(ifd0Entries, TagStripByteCounts, LongValue(uint32(len(thumb))))
	setEntryValue(subEntries, TagExifIFD, LongValue(uint32(exifDirOff)))
	// The main strip immediately follows the thumbnail bytes.
	mainStripOff := thumbOff + int64(len(thumb))
	setEntryValue(subEntries, TagStripOffsets, LongValue(uint32(mainStripOff)))
	setEntryValue(subEntries, TagStripByteCounts, LongValue(uint32(len(buf.Pixels)*2)))

	ifd0 = NewIFD(ifd0Entries)
	sub = NewIFD(subEntries)
	exif = NewIFD(exifEntries)

	ifd0Dir, ifd0Extra := ifd0.Encode(uint32(extraOff), 0)
	subDir, subExtra := sub.Encode(uint32(subExtraOff), 0)
	exifDir, exifExtra := exif.Encode(uint32(exifExtraOff), 0)

	header := make([]byte, 0, mainStripOff)
	header = append(header, 'I', 'I', 0x2A, 0x00)
	header = append(header, le32(uint32(ifd0DirOff))...)
	header = append(header, ifd0Dir...)
	header = append(header, subDir...)
	header = append(header, exifDir...)
	header = append(header, ifd0Extra...)
	header = append(header, subExtra...)
	header = append(header, exifExtra...)
	header = append(header, thumb...)

	strip := NewStripReader(buf)
	return &Image{
		Header:      header,
		Strip:       strip,
		StripOffset: int64(len(header)),
		TotalSize:   int64(len(header)) + strip.Size(),
	}, nil
}

// SizeOf returns a synthesized frame's total DNG byte size without
// decoding or correcting its pixel data. IFD0's embedded thumbnail is a
// fixed 128x84x3 RGB8 block regardless of pixel content, and the main
// strip's byte count follows directly from the frame's declared
// dimensions (always repacked to 16 bits per sample, see
// subIFDEntryTemplate) — so every offset Emit computes can be derived
// from bundle metadata alone, letting Getattr report a frame's size
// without running the bit-unpack/correction pipeline (spec §4.8).
func SizeOf(bundle *frameheader.Bundle) int64 {
	rawi := bundle.RAWI.RawInfo
	opcodes := BuildFixBadPixelsConstantOpcodeList(0, 0)

	ifd0 := NewIFD(ifd0EntryTemplate())
	sub := NewIFD(subIFDEntryTemplate(bundle, rawi, opcodes))
	exif := NewIFD(exifIFDEntryTemplate(bundle))

	const headerSize = 8
	ifd0DirOff := int64(headerSize)
	subDirOff := ifd0DirOff + ifd0.DirectorySize()
	exifDirOff := subDirOff + sub.DirectorySize()
	extraOff := exifDirOff + exif.DirectorySize()
	thumbOff := extraOff + ifd0.ExtraDataSize() + sub.ExtraDataSize() + exif.ExtraDataSize()

	thumbSize := int64(ThumbnailWidth * ThumbnailHeight * 3)
	mainStripSize := int64(bundle.RAWI.XRes) * int64(bundle.RAWI.YRes) * 2

	return thumbOff + thumbSize + mainStripSize
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func setEntryValue(entries []Entry, tag uint16, value []byte) {
	for i := range entries {
		if entries[i].Tag == tag {
			entries[i].Value = value
			return
		}
	}
}

func ifd0EntryTemplate() []Entry {
	return []Entry{
		{Tag: TagNewSubFileType, Type: TypeLong, Count: 1, Value: LongValue(1)},
		{Tag: TagImageWidth, Type: TypeLong, Count: 1, Value: LongValue(ThumbnailWidth)},
		{Tag: TagImageLength, Type: TypeLong, Count: 1, Value: LongValue(ThumbnailHeight)},
		{Tag: TagBitsPerSample, Type: TypeShort, Count: 3, Value: ShortsValue([]uint16{8, 8, 8})},
		{Tag: TagCompression, Type: TypeShort, Count: 1, Value: ShortValue(1)},
		{Tag: TagPhotometric, Type: TypeShort, Count: 1, Value: ShortValue(2)},
		{Tag: TagMake, Type: TypeASCII, Count: uint32(len(tagMakeValue) + 1), Value: ASCIIValue(tagMakeValue)},
		{Tag: TagOrientation, Type: TypeShort, Count: 1, Value: ShortValue(1)},
		{Tag: TagSamplesPerPixel, Type: TypeShort, Count: 1, Value: ShortValue(3)},
		{Tag: TagRowsPerStrip, Type: TypeLong, Count: 1, Value: LongValue(ThumbnailHeight)},
		{Tag: TagStripOffsets, Type: TypeLong, Count: 1, Value: LongValue(0)},
		{Tag: TagStripByteCounts, Type: TypeLong, Count: 1, Value: LongValue(0)},
		{Tag: TagPlanarConfig, Type: TypeShort, Count: 1, Value: ShortValue(1)},
		{Tag: TagSoftware, Type: TypeASCII, Count: uint32(len(tagSoftwareValue) + 1), Value: ASCIIValue(tagSoftwareValue)},
		{Tag: TagSubIFDs, Type: TypeLong, Count: 1, Value: LongValue(0)},
		{Tag: TagDNGVersion, Type: TypeByte, Count: 4, Value: []byte{1, 3, 0, 0}},
		{Tag: TagDNGBackwardVersion, Type: TypeByte, Count: 4, Value: []byte{1, 3, 0, 0}},
	}
}

func subIFDEntryTemplate(bundle *frameheader.Bundle, rawi container.RawInfo, opcodes []byte) []Entry {
	colorMatrix := make([][2]int32, 9)
	for i, r := range rawi.ColorMatrix {
		colorMatrix[i] = [2]int32{r.Num, r.Denom}
	}

	cropW := rawi.CropArea.Width
	cropH := rawi.CropArea.Height
	if cropW == 0 {
		cropW = bundle.RAWI.XRes
	}
	if cropH == 0 {
		cropH = bundle.RAWI.YRes
	}

	return []Entry{
		{Tag: TagNewSubFileType, Type: TypeLong, Count: 1, Value: LongValue(0)},
		{Tag: TagImageWidth, Type: TypeLong, Count: 1, Value: LongValue(uint32(bundle.RAWI.XRes))},
		{Tag: TagImageLength, Type: TypeLong, Count: 1, Value: LongValue(uint32(bundle.RAWI.YRes))},
		{Tag: TagBitsPerSample, Type: TypeShort, Count: 1, Value: ShortValue(16)},
		{Tag: TagCompression, Type: TypeShort, Count: 1, Value: ShortValue(1)},
		{Tag: TagPhotometric, Type: TypeShort, Count: 1, Value: ShortValue(0x8023)},
		{Tag: TagSamplesPerPixel, Type: TypeShort, Count: 1, Value: ShortValue(1)},
		{Tag: TagRowsPerStrip, Type: TypeLong, Count: 1, Value: LongValue(uint32(bundle.RAWI.YRes))},
		{Tag: TagStripOffsets, Type: TypeLong, Count: 1, Value: LongValue(0)},
		{Tag: TagStripByteCounts, Type: TypeLong, Count: 1, Value: LongValue(0)},
		{Tag: TagPlanarConfig, Type: TypeShort, Count: 1, Value: ShortValue(1)},
		{Tag: TagCFARepeatPatternDim, Type: TypeShort, Count: 2, Value: ShortsValue([]uint16{2, 2})},
		{Tag: TagCFAPattern, Type: TypeByte, Count: 4, Value: CFAPatternFor(rawi.CFAPattern)},
		{Tag: TagExifIFD, Type: TypeLong, Count: 1, Value: LongValue(0)},
		{Tag: TagUniqueCameraModel, Type: TypeASCII, Count: uint32(len(bundle.IDNT.CameraModel) + 1), Value: ASCIIValue(bundle.IDNT.CameraModel)},
		{Tag: TagColorMatrix1, Type: TypeSRational, Count: 9, Value: SRationalsValue(colorMatrix)},
		{Tag: TagAnalogBalance, Type: TypeRational, Count: 3, Value: concatBytes(RationalValue(1, 1), RationalValue(1, 1), RationalValue(1, 1))},
		{Tag: TagAsShotNeutral, Type: TypeRational, Count: 3, Value: asShotNeutral(bundle.WBAL)},
		{Tag: TagBaselineExposure, Type: TypeSRational, Count: 1, Value: SRationalValue(0, 1)},
		{Tag: TagBaselineNoise, Type: TypeRational, Count: 1, Value: RationalValue(1, 1)},
		{Tag: TagBaselineSharpness, Type: TypeRational, Count: 1, Value: RationalValue(1, 1)},
		{Tag: TagLinearResponseLimit, Type: TypeRational, Count: 1, Value: RationalValue(1, 1)},
		{Tag: TagCalibrationIll1, Type: TypeShort, Count: 1, Value: ShortValue(21)}, // D65
		{Tag: TagBlackLevel, Type: TypeLong, Count: 1, Value: LongValue(uint32(rawi.BlackLevel))},
		{Tag: TagWhiteLevel, Type: TypeLong, Count: 1, Value: LongValue(uint32(rawi.WhiteLevel))},
		{Tag: TagActiveArea, Type: TypeLong, Count: 4, Value: LongsValue([]uint32{
			uint32(rawi.ActiveArea.Y), uint32(rawi.ActiveArea.X),
			uint32(rawi.ActiveArea.Y) + uint32(rawi.ActiveArea.Height),
			uint32(rawi.ActiveArea.X) + uint32(rawi.ActiveArea.Width),
		})},
		{Tag: TagDefaultCropOrigin, Type: TypeLong, Count: 2, Value: LongsValue([]uint32{uint32(rawi.CropArea.X), uint32(rawi.CropArea.Y)})},
		{Tag: TagDefaultCropSize, Type: TypeLong, Count: 2, Value: LongsValue([]uint32{uint32(cropW), uint32(cropH)})},
		{Tag: TagFrameRate, Type: TypeSRational, Count: 1, Value: SRationalValue(int32(bundle.MLVI.FrameRateNum), int32(bundle.MLVI.FrameRateDenom))},
		{Tag: TagOpcodeList2, Type: TypeUndefined, Count: uint32(len(opcodes)), Value: opcodes},
	}
}

func exifIFDEntryTemplate(bundle *frameheader.Bundle) []Entry {
	shutterSeconds := float64(bundle.EXPO.ShutterNs) / 1e9
	shutterNum, shutterDenom := rationalApprox(shutterSeconds)

	return []Entry{
		{Tag: TagExposureTime, Type: TypeRational, Count: 1, Value: RationalValue(shutterNum, shutterDenom)},
		{Tag: TagFNumber, Type: TypeRational, Count: 1, Value: RationalValue(bundle.LENS.ApertureFNum100, 100)},
		{Tag: TagExposureProgram, Type: TypeShort, Count: 1, Value: ShortValue(2)},
		{Tag: TagISOSpeedRatings, Type: TypeShort, Count: 1, Value: ShortValue(uint16(clampUint32ToUint16(bundle.EXPO.ISO)))},
		{Tag: TagExifVersion, Type: TypeUndefined, Count: 4, Value: []byte{'0', '2', '3', '0'}},
		{Tag: TagDateTimeOriginal, Type: TypeASCII, Count: 20, Value: ASCIIValue(formatDateTime(bundle.RTCI))},
		{Tag: TagMeteringMode, Type: TypeShort, Count: 1, Value: ShortValue(2)},
		{Tag: TagFlash, Type: TypeShort, Count: 1, Value: ShortValue(0)},
		{Tag: TagFocalLength, Type: TypeRational, Count: 1, Value: RationalValue(bundle.LENS.FocalLengthMM1000, 1000)},
		{Tag: TagSubSecTime, Type: TypeASCII, Count: 4, Value: ASCIIValue(fmt.Sprintf("%03d", bundle.RTCI.Millisecond))},
	}
}

func asShotNeutral(wbal container.WBALInfo) []byte {
	neutral := func(gain uint32) []byte {
		if gain == 0 {
			return RationalValue(1, 1)
		}
		return RationalValue(1<<16, gain)
	}
	return concatBytes(neutral(wbal.GainR), neutral(wbal.GainG), neutral(wbal.GainB))
}

func concatBytes(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func rationalApprox(v float64) (uint32, uint32) {
	if v <= 0 {
		return 0, 1
	}
	const denom = 1_000_000
	return uint32(v * denom), denom
}

func clampUint32ToUint16(v uint32) uint32 {
	if v > 0xFFFF {
		return 0xFFFF
	}
	return v
}

func formatDateTime(rtci container.RTCIInfo) string {
	return fmt.Sprintf("%04d:%02d:%02d %02d:%02d:%02d",
		rtci.Year, rtci.Month, rtci.Day, rtci.Hour, rtci.Minute, rtci.Second)
}
