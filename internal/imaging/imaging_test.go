package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMakeThumbnail(t *testing.T) {
	t.Run("scales wide image", func(t *testing.T) {
		thumb, err := MakeThumbnail(encodePNG(t, 1200, 630), 400)
		require.NoError(t, err)
		require.NotNil(t, thumb)
		assert.Equal(t, 400, thumb.Width)
		assert.Equal(t, 210, thumb.Height)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb.Data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 400, cfg.Width)
	})

	t.Run("skips small image", func(t *testing.T) {
		thumb, err := MakeThumbnail(encodePNG(t, 300, 100), 400)
		require.NoError(t, err)
		assert.Nil(t, thumb)
	})

	t.Run("default width", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 800, 800)), nil))
		thumb, err := MakeThumbnail(buf.Bytes(), 0)
		require.NoError(t, err)
		require.NotNil(t, thumb)
		assert.Equal(t, DefaultThumbWidth, thumb.Width)
		assert.Equal(t, DefaultThumbWidth, thumb.Height)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := MakeThumbnail([]byte("not an image"), 400)
		assert.Error(t, err)
	})
}

func TestDimensions(t *testing.T) {
	w, h, err := Dimensions(encodePNG(t, 64, 32))
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
}

func TestThumbable(t *testing.T) {
	for ct, want := range map[string]bool{
		"image/jpeg":      true,
		"image/png":       true,
		"image/webp":      true,
		"image/gif":       false,
		"image/svg+xml":   false,
		"application/pdf": false,
	} {
		assert.Equal(t, want, Thumbable(ct), ct)
	}
}
