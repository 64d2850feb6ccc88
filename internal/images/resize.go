package images

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const (
	UserPhotoSize   = 500
	TourCoverWidth  = 2000
	TourCoverHeight = 1333

	jpegQuality = 90
)

// ResizeJPEG decodes src, crops it to cover width x height and re-encodes
// it as JPEG. Uploaded formats other than JPEG (PNG, GIF, ...) are converted.
func ResizeJPEG(src io.Reader, width, height int) ([]byte, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return buf.Bytes(), nil
}

// Save writes an encoded image under dir, creating the directory if needed.
func Save(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}
