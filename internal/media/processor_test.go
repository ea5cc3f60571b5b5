package media

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func newTestProcessor(bound int) *Processor {
	log := zerolog.Nop()
	return NewProcessor(bound, DefaultQuality, &log)
}

func TestProcessShrinksLargeImage(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "poster.png")
	writeTestImage(t, source, 1200, 600)

	thumbPath, err := newTestProcessor(300).Process(source)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "poster_thumb.jpg"), thumbPath)

	thumb, err := imaging.Open(thumbPath)
	require.NoError(t, err)
	bounds := thumb.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), 300)
	assert.LessOrEqual(t, bounds.Dy(), 300)
	// aspect ratio preserved: 2:1 input stays 2:1
	assert.Equal(t, 300, bounds.Dx())
	assert.Equal(t, 150, bounds.Dy())
}

func TestProcessKeepsSmallImageSize(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "poster.png")
	writeTestImage(t, source, 120, 80)

	thumbPath, err := newTestProcessor(300).Process(source)
	require.NoError(t, err)

	thumb, err := imaging.Open(thumbPath)
	require.NoError(t, err)
	assert.Equal(t, 120, thumb.Bounds().Dx())
	assert.Equal(t, 80, thumb.Bounds().Dy())
}

func TestProcessIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "poster.png")
	writeTestImage(t, source, 640, 480)

	p := newTestProcessor(300)
	first, err := p.Process(source)
	require.NoError(t, err)
	second, err := p.Process(source)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProcessCorruptSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "corrupt.jpg")
	require.NoError(t, os.WriteFile(source, []byte("this is not an image"), 0o644))

	_, err := newTestProcessor(300).Process(source)
	require.Error(t, err)
	_, statErr := os.Stat(ThumbPath(source))
	assert.True(t, os.IsNotExist(statErr), "no thumbnail must be written for a corrupt source")
}

func TestProcessMissingSource(t *testing.T) {
	_, err := newTestProcessor(300).Process(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestThumbPath(t *testing.T) {
	assert.Equal(t, "/up/loads/a_thumb.jpg", ThumbPath("/up/loads/a.png"))
	assert.Equal(t, "poster_thumb.jpg", ThumbPath("poster.jpeg"))
	assert.Equal(t, "noext_thumb.jpg", ThumbPath("noext"))
}
