package util

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writeImage(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})

	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()

	if filepath.Ext(name) == ".bmp" {
		require.NoError(t, bmp.Encode(f, img))
		return
	}
	require.NoError(t, png.Encode(f, img))
}

func TestLoadDirectoryImageFiles(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "frame-10.png", 4, 3)
	writeImage(t, dir, "frame-2.bmp", 4, 3)
	writeImage(t, dir, "still.png", 4, 3)
	writeImage(t, dir, "frame-1.PNG", 4, 3)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o700))

	files, err := LoadDirectoryImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 4)

	assert.Equal(t, []int{1, 2, 10, -1}, []int{files[0].Frame, files[1].Frame, files[2].Frame, files[3].Frame})
	assert.Equal(t, "still.png", filepath.Base(files[3].Path))
	for _, f := range files {
		assert.NotEmpty(t, f.Data)
	}
}

func TestImageFileDecode(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "frame-0.png", 8, 6)
	writeImage(t, dir, "frame-1.bmp", 8, 6)

	files, err := LoadDirectoryImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, f := range files {
		img, err := f.Decode()
		require.NoError(t, err, f.Path)
		assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
		r, _, _, _ := img.At(0, 0).RGBA()
		assert.Equal(t, uint32(200), r>>8, "%s", f.Path)
	}
}

func TestImageFileDecode_Errors(t *testing.T) {
	_, err := LoadDirectoryImageFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = ImageFile{Path: "broken.png", Data: []byte("not a png")}.Decode()
	assert.ErrorContains(t, err, "broken.png")
}

func TestFrameNumber(t *testing.T) {
	assert.Equal(t, 12, frameNumber("frame-12"))
	assert.Equal(t, 7, frameNumber("7"))
	assert.Equal(t, -1, frameNumber("still"))
	assert.Equal(t, -1, frameNumber(""))
}
