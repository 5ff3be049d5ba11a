package imageprocessor

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
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDownscale_WidePNG(t *testing.T) {
	p := NewProcessor(85, 100)

	out, changed, err := p.Downscale(encodePNG(t, 400, 200), "image/png")
	require.NoError(t, err)
	assert.True(t, changed)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestDownscale_WideJPEG(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, jpeg.Encode(&src, image.NewRGBA(image.Rect(0, 0, 300, 300)), nil))

	out, changed, err := NewProcessor(0, 150).Downscale(src.Bytes(), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, changed)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 150, cfg.Width)
}

func TestDownscale_KeepsSmallAndOtherFormats(t *testing.T) {
	p := NewProcessor(85, 1200)
	small := encodePNG(t, 10, 10)

	out, changed, err := p.Downscale(small, "image/png")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, small, out)

	gif := []byte("GIF89a...")
	out, changed, err = p.Downscale(gif, "image/gif")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, gif, out)

	out, changed, err = NewProcessor(85, 0).Downscale(encodePNG(t, 2000, 10), "image/png")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NotEmpty(t, out)
}

func TestDownscale_CorruptImage(t *testing.T) {
	_, _, err := NewProcessor(85, 10).Downscale([]byte("not an image"), "image/png")
	assert.Error(t, err)
}
