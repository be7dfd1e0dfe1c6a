// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging generates preview thumbnails for uploaded media. The
// media library and the og:image picker show these instead of the
// full-size originals. Decoding covers JPEG, PNG, GIF and WebP.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

const (
	// DefaultThumbWidth is the preview width in pixels.
	DefaultThumbWidth = 400

	// thumbQuality is the JPEG quality for generated thumbnails.
	thumbQuality = 80

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
	maxImagePixels = 100_000_000
)

// ErrTooLarge is returned for images above maxImagePixels.
var ErrTooLarge = errors.New("imaging: image dimensions too large")

// Thumbable reports whether Thumbnail handles the content type. GIF is
// excluded to keep animation; SVG is vector.
func Thumbable(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}

// Thumbnail is one generated JPEG preview.
type Thumbnail struct {
	Width  int
	Height int
	Data   []byte
}

// Dimensions returns the width and height without fully decoding the image.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("imaging: decode config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// MakeThumbnail scales the image down to maxWidth, preserving the aspect
// ratio, and encodes it as JPEG. It returns nil, nil when the image is
// already no wider than maxWidth.
func MakeThumbnail(data []byte, maxWidth int) (*Thumbnail, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultThumbWidth
	}
	w, h, err := Dimensions(data)
	if err != nil {
		return nil, err
	}
	if int64(w)*int64(h) > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, w, h)
	}
	if w <= maxWidth {
		return nil, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	bounds := img.Bounds()
	newHeight := max(1, int(float64(bounds.Dy())*float64(maxWidth)/float64(bounds.Dx())))
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode thumbnail: %w", err)
	}
	return &Thumbnail{Width: maxWidth, Height: newHeight, Data: buf.Bytes()}, nil
}
