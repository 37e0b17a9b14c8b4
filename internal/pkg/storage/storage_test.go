package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "upload/ab/file.txt", strings.NewReader("hello")))

	r, err := s.Get(ctx, "upload/ab/file.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, r.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	// Overwrite replaces the content.
	require.NoError(t, s.Save(ctx, "upload/ab/file.txt", strings.NewReader("bye")))
	r, err = s.Get(ctx, "upload/ab/file.txt")
	require.NoError(t, err)
	body, _ = io.ReadAll(r)
	r.Close()
	assert.Equal(t, "bye", string(body))

	require.NoError(t, s.Delete(ctx, "upload/ab/file.txt"))
	_, err = s.Get(ctx, "upload/ab/file.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "upload/ab/file.txt"), "deleting twice is fine")
}

func TestLocalStorage_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "a/b.bin", bytes.NewReader([]byte{1, 2, 3})))

	entries, err := os.ReadDir(filepath.Join(dir, "a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.bin", entries[0].Name())
}

func TestLocalStorage_RejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{"", ".", "..", "../secret", "a/../../secret", "/etc/passwd"} {
		t.Run(p, func(t *testing.T) {
			assert.ErrorIs(t, s.Save(ctx, p, strings.NewReader("x")), ErrInvalidPath)
			_, err := s.Get(ctx, p)
			assert.ErrorIs(t, err, ErrInvalidPath)
			assert.ErrorIs(t, s.Delete(ctx, p), ErrInvalidPath)
		})
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageProcessor_Thumbnail(t *testing.T) {
	p := NewImageProcessor()

	out, err := p.Thumbnail(bytes.NewReader(encodePNG(t, 400, 100)), 200)
	require.NoError(t, err)

	img, format, err := image.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	// Smaller images are not enlarged.
	out, err = p.Thumbnail(bytes.NewReader(encodePNG(t, 40, 30)), 200)
	require.NoError(t, err)
	img, _, err = image.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestImageProcessor_RejectsNonImages(t *testing.T) {
	_, err := NewImageProcessor().Thumbnail(strings.NewReader("not an image"), 200)
	assert.Error(t, err)
}
