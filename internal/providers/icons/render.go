package icons

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/sitewrap/sitewrap/internal/shared/fsutil"
	"github.com/sitewrap/sitewrap/internal/shared/paths"
)

// LadderPaths lists the files a complete ladder consists of, in size order
func LadderPaths(dir, iconID string, sizes []int) []string {
	out := make([]string, len(sizes))
	for i, size := range sizes {
		out[i] = filepath.Join(dir, paths.IconFileName(iconID, size))
	}
	return out
}

// HasLadder reports whether every ladder file exists
func HasLadder(dir, iconID string, sizes []int) bool {
	for _, p := range LadderPaths(dir, iconID, sizes) {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// EncodePNG resizes img to an exact size x size square with Lanczos
// resampling and returns the PNG bytes
func EncodePNG(img image.Image, size int) ([]byte, error) {
	resized := imaging.Resize(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, resized); err != nil {
		return nil, fmt.Errorf("encode %dx%d: %w", size, size, err)
	}
	return buf.Bytes(), nil
}

// RenderLadder writes img at every ladder size into dir.
// Encoding runs in parallel; the returned paths follow the order of sizes.
func RenderLadder(img image.Image, dir, iconID string, sizes []int) ([]string, error) {
	if err := os.MkdirAll(dir, fsutil.DirMode); err != nil {
		return nil, fmt.Errorf("create icon dir: %w", err)
	}

	encoded := make([][]byte, len(sizes))
	var g errgroup.Group
	for i, size := range sizes {
		g.Go(func() error {
			data, err := EncodePNG(img, size)
			if err != nil {
				return err
			}
			encoded[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := LadderPaths(dir, iconID, sizes)
	for i, path := range files {
		if err := fsutil.AtomicWriteFile(path, encoded[i], fsutil.FileMode); err != nil {
			return nil, fmt.Errorf("write icon %s: %w", filepath.Base(path), err)
		}
	}
	return files, nil
}
