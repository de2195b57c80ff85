package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
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

func TestPrepareKeepsSmallImage(t *testing.T) {
	data := encodePNG(t, 40, 20)

	p, err := Prepare("lamp.png", data, 100)
	require.NoError(t, err)

	assert.False(t, p.Resized)
	assert.Equal(t, data, p.Data)
	assert.Equal(t, "image/png", p.ContentType)
	assert.Equal(t, "lamp.png", p.Filename)
	assert.Equal(t, 40, p.Width)
}

func TestPrepareDownscalesWideImage(t *testing.T) {
	data := encodePNG(t, 400, 200)

	p, err := Prepare("lamp.png", data, 100)
	require.NoError(t, err)

	assert.True(t, p.Resized)
	assert.Equal(t, 100, p.Width)
	assert.Equal(t, 50, p.Height)

	decoded, format, err := image.Decode(bytes.NewReader(p.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, decoded.Bounds().Dx())
}

func TestPrepareJPEGStaysJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 150))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	p, err := Prepare("desk.jpeg", buf.Bytes(), 150)
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", p.ContentType)
	assert.Equal(t, "desk.jpg", p.Filename)
	assert.Equal(t, 150, p.Width)
}

func TestPrepareZeroWidthDisablesResize(t *testing.T) {
	p, err := Prepare("big.png", encodePNG(t, 500, 10), 0)
	require.NoError(t, err)
	assert.False(t, p.Resized)
	assert.Equal(t, 500, p.Width)
}

func TestPrepareRejectsNonImage(t *testing.T) {
	_, err := Prepare("notes.txt", []byte("hello"), 100)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// pngHeader is a PNG signature and IHDR chunk declaring w x h grayscale pixels, with no image data
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := make([]byte, 0, 17)
	chunk = append(chunk, "IHDR"...)
	chunk = binary.BigEndian.AppendUint32(chunk, w)
	chunk = binary.BigEndian.AppendUint32(chunk, h)
	chunk = append(chunk, 8, 0, 0, 0, 0)

	_ = binary.Write(&buf, binary.BigEndian, uint32(len(chunk)-4))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestPrepareRejectsHugeDimensionsBeforeDecoding(t *testing.T) {
	data := pngHeader(20000, 20000)

	_, err := Prepare("poster.png", data, 800)

	require.ErrorIs(t, err, ErrTooLarge)
	assert.Contains(t, err.Error(), "20000x20000")
}

func TestPrepareAcceptsDimensionsAtLimit(t *testing.T) {
	_, err := Prepare("strip.png", pngHeader(MaxPixels, 1), 0)

	// within the pixel budget, so the missing image data is what fails
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.NotErrorIs(t, err, ErrTooLarge)
}

func TestWithExtension(t *testing.T) {
	assert.Equal(t, "a.png", withExtension("a.gif", "png"))
	assert.Equal(t, "image.jpg", withExtension("", "jpeg"))
}
