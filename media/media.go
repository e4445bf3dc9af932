// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package media normalises question images before they are stored.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

// Normalizer decodes an uploaded image, shrinks it to MaxWidth keeping the
// aspect ratio, and re-encodes it in its original format.
type Normalizer struct {
	MaxWidth int
}

func NewNormalizer(maxWidth int) *Normalizer {
	return &Normalizer{MaxWidth: maxWidth}
}

func (n *Normalizer) Normalize(img []byte) ([]byte, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	out, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}

	decoded, err := imaging.Decode(bytes.NewReader(img), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if n.MaxWidth > 0 && decoded.Bounds().Dx() > n.MaxWidth {
		decoded = imaging.Resize(decoded, n.MaxWidth, 0, imaging.Lanczos)
	} else if format != "jpeg" {
		// Small non-JPEG images are stored untouched
		return img, nil
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, decoded, out, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

var formats = map[string]imaging.Format{
	"jpeg": imaging.JPEG,
	"png":  imaging.PNG,
	"gif":  imaging.GIF,
	"bmp":  imaging.BMP,
	"tiff": imaging.TIFF,
}
