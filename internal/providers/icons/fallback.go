package icons

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Fallback canvas geometry
const (
	FallbackCanvas    = 512
	FallbackGlyphSize = 220
	defaultInitial    = 'S'
)

var (
	fallbackFont     *opentype.Font
	fallbackFontErr  error
	fallbackFontOnce sync.Once
)

func loadFallbackFont() (*opentype.Font, error) {
	fallbackFontOnce.Do(func() {
		fallbackFont, fallbackFontErr = opentype.Parse(goregular.TTF)
	})
	return fallbackFont, fallbackFontErr
}

// Initial returns the glyph drawn for host: its first character after a
// leading "www.", uppercased, or 'S' when there is none
func Initial(host string) rune {
	trimmed := strings.TrimPrefix(host, "www.")
	r, _ := utf8.DecodeRuneInString(trimmed)
	if r == utf8.RuneError {
		return defaultInitial
	}
	return unicode.ToUpper(r)
}

// Seed derives the color seed from the SHA-256 of host
func Seed(host string) uint64 {
	sum := sha256.Sum256([]byte(host))
	return binary.LittleEndian.Uint64(sum[:8])
}

// Background returns the deterministic background color for host
func Background(host string) color.NRGBA {
	rng := rand.New(rand.NewPCG(Seed(host), 0))
	return color.NRGBA{
		R: uint8(rng.UintN(256)),
		G: uint8(rng.UintN(256)),
		B: uint8(rng.UintN(256)),
		A: 0xff,
	}
}

// Synthesize draws the fallback icon for host: a solid seeded background
// with the white initial centered on it
func Synthesize(host string) (*image.NRGBA, error) {
	canvas := image.NewNRGBA(image.Rect(0, 0, FallbackCanvas, FallbackCanvas))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(Background(host)), image.Point{}, draw.Src)

	f, err := loadFallbackFont()
	if err != nil {
		return nil, fmt.Errorf("load fallback font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    FallbackGlyphSize,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create fallback face: %w", err)
	}
	defer face.Close()

	glyph := string(Initial(host))
	bounds, _ := font.BoundString(face, glyph)
	w := bounds.Max.X - bounds.Min.X
	h := bounds.Max.Y - bounds.Min.Y
	size := fixed.I(FallbackCanvas)

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.White,
		Face: face,
		Dot: fixed.Point26_6{
			X: (size-w)/2 - bounds.Min.X,
			Y: (size-h)/2 - bounds.Min.Y,
		},
	}
	d.DrawString(glyph)
	return canvas, nil
}
