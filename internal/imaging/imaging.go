// Package imaging prepares seller uploads before they are sent to the backend.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

const (
	// MaxUploadBytes is the largest image accepted after processing
	MaxUploadBytes = 5 << 20
	// MaxPixels bounds the decoded size of an upload
	MaxPixels = 40_000_000
)

var (
	ErrTooLarge          = errors.New("image is too large")
	ErrUnsupportedFormat = errors.New("file is not a supported image")
)

// Prepared is an image ready for upload
type Prepared struct {
	Data        []byte
	ContentType string
	Filename    string
	Width       int
	Height      int
	Resized     bool
}

// Prepare decodes data and downscales it to maxWidth when wider.
// maxWidth <= 0 disables resizing.
func Prepare(filename string, data []byte, maxWidth int) (*Prepared, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxPixels/cfg.Height {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := img.Bounds()
	p := &Prepared{
		Data:        data,
		ContentType: "image/" + format,
		Filename:    filename,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}

	if maxWidth > 0 && p.Width > maxWidth {
		scaled := resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)

		var buf bytes.Buffer
		switch format {
		case "jpeg":
			err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85})
		default:
			// only the first gif frame survives resizing
			err = png.Encode(&buf, scaled)
			format = "png"
		}
		if err != nil {
			return nil, fmt.Errorf("encoding resized image: %w", err)
		}

		sb := scaled.Bounds()
		p.Data = buf.Bytes()
		p.ContentType = "image/" + format
		p.Filename = withExtension(filename, format)
		p.Width = sb.Dx()
		p.Height = sb.Dy()
		p.Resized = true
	}

	if len(p.Data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes after processing, limit 5MB", ErrTooLarge, len(p.Data))
	}
	return p, nil
}

func withExtension(name, format string) string {
	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "image"
	}
	return base + ext
}
