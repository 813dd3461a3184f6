package icons

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Decode errors
var (
	ErrNotICO            = errors.New("not an ICO container")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

const (
	icoHeaderLen = 6
	icoEntryLen  = 16
	dibHeaderLen = 40
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// decodable lists the single-image formats registered with package image
var decodable = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/webp": true,
}

// Decode decodes icon bytes. ICO containers are tried first and yield their
// widest frame; anything else is sniffed and decoded as a single image.
func Decode(data []byte) (image.Image, error) {
	if img, err := DecodeICO(data); err == nil {
		return img, nil
	} else if !errors.Is(err, ErrNotICO) {
		return nil, err
	}

	mtype := mimetype.Detect(data)
	if !isDecodable(mtype) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mtype.String(), err)
	}
	return img, nil
}

// isDecodable accepts a detected type or any of its ancestors, so APNG
// decodes as PNG
func isDecodable(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if decodable[m.String()] {
			return true
		}
	}
	return false
}

type icoEntry struct {
	width  int
	height int
	bpp    int
	size   uint32
	offset uint32
}

// DecodeICO decodes the widest frame of an ICO or CUR container.
// It returns ErrNotICO when data does not carry an icon directory.
func DecodeICO(data []byte) (image.Image, error) {
	entries, err := readICODirectory(data)
	if err != nil {
		return nil, err
	}

	best := entries[0]
	for _, e := range entries[1:] {
		if e.width >= best.width {
			best = e
		}
	}

	end := uint64(best.offset) + uint64(best.size)
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("ico frame at %d+%d exceeds %d bytes", best.offset, best.size, len(data))
	}
	frame := data[best.offset:end]

	if bytes.HasPrefix(frame, pngSignature) {
		img, err := png.Decode(bytes.NewReader(frame))
		if err != nil {
			return nil, fmt.Errorf("decode ico png frame: %w", err)
		}
		return img, nil
	}
	return decodeDIB(frame)
}

func readICODirectory(data []byte) ([]icoEntry, error) {
	if len(data) < icoHeaderLen {
		return nil, ErrNotICO
	}
	reserved := binary.LittleEndian.Uint16(data[0:2])
	kind := binary.LittleEndian.Uint16(data[2:4])
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	if reserved != 0 || (kind != 1 && kind != 2) || count == 0 {
		return nil, ErrNotICO
	}
	if len(data) < icoHeaderLen+count*icoEntryLen {
		return nil, ErrNotICO
	}

	entries := make([]icoEntry, 0, count)
	for i := 0; i < count; i++ {
		b := data[icoHeaderLen+i*icoEntryLen:]
		e := icoEntry{
			width:  int(b[0]),
			height: int(b[1]),
			bpp:    int(binary.LittleEndian.Uint16(b[6:8])),
			size:   binary.LittleEndian.Uint32(b[8:12]),
			offset: binary.LittleEndian.Uint32(b[12:16]),
		}
		// zero encodes 256
		if e.width == 0 {
			e.width = 256
		}
		if e.height == 0 {
			e.height = 256
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// decodeDIB decodes a headerless BMP as stored in ICO frames: the declared
// height covers the color bitmap and the 1-bit AND mask below it.
func decodeDIB(b []byte) (image.Image, error) {
	if len(b) < dibHeaderLen {
		return nil, errors.New("ico bitmap frame too short")
	}
	headerLen := int(binary.LittleEndian.Uint32(b[0:4]))
	width := int(int32(binary.LittleEndian.Uint32(b[4:8])))
	height := int(int32(binary.LittleEndian.Uint32(b[8:12]))) / 2
	bpp := int(binary.LittleEndian.Uint16(b[14:16]))
	compression := binary.LittleEndian.Uint32(b[16:20])
	colorsUsed := int(binary.LittleEndian.Uint32(b[32:36]))

	if headerLen < dibHeaderLen || headerLen > len(b) {
		return nil, fmt.Errorf("ico bitmap header length %d", headerLen)
	}
	if width <= 0 || height <= 0 || width > 1024 || height > 1024 {
		return nil, fmt.Errorf("ico bitmap size %dx%d", width, height)
	}
	if compression != 0 && compression != 3 {
		return nil, fmt.Errorf("ico bitmap compression %d", compression)
	}

	var palette []color.NRGBA
	off := headerLen
	if bpp <= 8 {
		switch bpp {
		case 1, 4, 8:
		default:
			return nil, fmt.Errorf("ico bitmap depth %d", bpp)
		}
		if colorsUsed == 0 {
			colorsUsed = 1 << bpp
		}
		if off+colorsUsed*4 > len(b) {
			return nil, errors.New("ico palette truncated")
		}
		palette = make([]color.NRGBA, colorsUsed)
		for i := range palette {
			p := b[off+i*4:]
			palette[i] = color.NRGBA{R: p[2], G: p[1], B: p[0], A: 0xff}
		}
		off += colorsUsed * 4
	} else if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("ico bitmap depth %d", bpp)
	}

	stride := ((width*bpp + 31) / 32) * 4
	maskStride := ((width + 31) / 32) * 4
	if off+stride*height > len(b) {
		return nil, errors.New("ico bitmap truncated")
	}
	pixels := b[off : off+stride*height]
	var mask []byte
	if maskOff := off + stride*height; maskOff+maskStride*height <= len(b) {
		mask = b[maskOff : maskOff+maskStride*height]
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	hasAlpha := false

	for y := 0; y < height; y++ {
		// rows are stored bottom-up
		row := pixels[(height-1-y)*stride:]
		for x := 0; x < width; x++ {
			var c color.NRGBA
			switch bpp {
			case 32:
				p := row[x*4:]
				c = color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
				if p[3] != 0 {
					hasAlpha = true
				}
			case 24:
				p := row[x*3:]
				c = color.NRGBA{R: p[2], G: p[1], B: p[0], A: 0xff}
			default:
				idx := paletteIndex(row, x, bpp)
				if idx < len(palette) {
					c = palette[idx]
				}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	// The AND mask drives transparency unless the frame carries real alpha
	if mask != nil && !(bpp == 32 && hasAlpha) {
		for y := 0; y < height; y++ {
			row := mask[(height-1-y)*maskStride:]
			for x := 0; x < width; x++ {
				transparent := row[x/8]&(0x80>>(x%8)) != 0
				c := img.NRGBAAt(x, y)
				if transparent {
					c.A = 0
				} else {
					c.A = 0xff
				}
				img.SetNRGBA(x, y, c)
			}
		}
	} else if bpp == 32 && !hasAlpha {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
	}

	return img, nil
}

func paletteIndex(row []byte, x, bpp int) int {
	switch bpp {
	case 8:
		return int(row[x])
	case 4:
		v := row[x/2]
		if x%2 == 0 {
			return int(v >> 4)
		}
		return int(v & 0x0f)
	default:
		if row[x/8]&(0x80>>(x%8)) != 0 {
			return 1
		}
		return 0
	}
}
