// Package media decodes uploaded images and stores them on the local disk or
// in an S3-compatible bucket.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // decoder registration
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// MaxImageBytes caps the decoded upload size.
	MaxImageBytes = 5 << 20
	// MaxImagePixels caps width*height before the pixels are decoded.
	MaxImagePixels = 40_000_000
)

var (
	ErrBadDataURI   = errors.New("image must be a base64 data URI")
	ErrNotImage     = errors.New("not a supported image")
	ErrImageTooBig  = fmt.Errorf("image exceeds %dMB", MaxImageBytes>>20)
	ErrTooManyPixel = fmt.Errorf("image exceeds %d megapixels", MaxImagePixels/1_000_000)
	allowedFormats  = map[string]imaging.Format{"jpeg": imaging.JPEG, "png": imaging.PNG, "gif": imaging.PNG}
	formatExtension = map[imaging.Format]string{imaging.JPEG: "jpg", imaging.PNG: "png"}
	formatMIME      = map[imaging.Format]string{imaging.JPEG: "image/jpeg", imaging.PNG: "image/png"}
)

// Image is a normalized upload ready to be stored.
type Image struct {
	Data        []byte
	Ext         string // without dot
	ContentType string
	Width       int
	Height      int
}

// DecodeDataURI extracts the bytes of "data:image/<fmt>;base64,<payload>".
// A bare base64 payload is accepted too.
func DecodeDataURI(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrBadDataURI
	}
	payload := s
	if strings.HasPrefix(s, "data:") {
		meta, data, ok := strings.Cut(s, ",")
		if !ok || !strings.HasSuffix(meta, ";base64") || !strings.HasPrefix(meta, "data:image/") {
			return nil, ErrBadDataURI
		}
		payload = data
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return nil, ErrImageTooBig
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrBadDataURI
	}
	if len(raw) > MaxImageBytes {
		return nil, ErrImageTooBig
	}
	return raw, nil
}

// Normalize decodes raw, applies EXIF orientation, shrinks it to fit within
// maxSide (0 keeps the size) and re-encodes it. GIFs become PNGs. Images
// larger than MaxImagePixels are rejected from their header alone.
func Normalize(raw []byte, maxSide int) (*Image, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, ErrNotImage
	}
	format, ok := allowedFormats[name]
	if !ok {
		return nil, ErrNotImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrNotImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, ErrTooManyPixel
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrNotImage
	}
	b := img.Bounds()
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("cannot encode image: %w", err)
	}
	nb := img.Bounds()
	return &Image{
		Data:        buf.Bytes(),
		Ext:         formatExtension[format],
		ContentType: formatMIME[format],
		Width:       nb.Dx(),
		Height:      nb.Dy(),
	}, nil
}

// FromDataURI is DecodeDataURI followed by Normalize.
func FromDataURI(s string, maxSide int) (*Image, error) {
	raw, err := DecodeDataURI(s)
	if err != nil {
		return nil, err
	}
	return Normalize(raw, maxSide)
}
