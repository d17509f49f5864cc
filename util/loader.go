// Package util - Still frame sources for batch detection.
package util

import (
	"bytes"
	"image"
	// Decoders for the formats ImageFile.Decode accepts.
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number parsed from the trailing digits of the file name,
	// or -1 when the name carries none.
	Frame int
}

// Decode decodes the file's bytes.
func (f ImageFile) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", f.Path)
	}
	return img, nil
}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Files are ordered by frame number, so "frame-2.png" precedes "frame-10.png".
// Files without a frame number follow, ordered by name.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: Error if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", dir)
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(file.Name()))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp", ".webp":
			imgPath := filepath.Join(dir, file.Name())
			data, readErr := os.ReadFile(imgPath)
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "failed to read %s", imgPath)
			}
			images = append(images, ImageFile{
				Path:  imgPath,
				Data:  data,
				Frame: frameNumber(strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))),
			})
		}
	}

	sort.SliceStable(images, func(i, j int) bool {
		a, b := images[i], images[j]
		if (a.Frame < 0) != (b.Frame < 0) {
			return a.Frame >= 0
		}
		if a.Frame != b.Frame {
			return a.Frame < b.Frame
		}
		return a.Path < b.Path
	})

	return images, nil
}

// frameNumber parses the trailing decimal digits of a file stem.
func frameNumber(stem string) int {
	i := len(stem)
	for i > 0 && stem[i-1] >= '0' && stem[i-1] <= '9' {
		i--
	}
	if i == len(stem) {
		return -1
	}
	n, err := strconv.Atoi(stem[i:])
	if err != nil {
		return -1
	}
	return n
}
