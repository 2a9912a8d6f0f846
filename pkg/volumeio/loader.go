// Package volumeio reads volumes from slice image stacks and raw voxel files.
package volumeio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"slicegrid/internal/models"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// LoadDir reads every PNG or JPEG image in dir as one slice of a volume.
// Slices are ordered by the number embedded in their file names and
// converted to gray intensities in [0,1]. All images must share dimensions.
func LoadDir(dir string) (*models.Volume, []models.Slice, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("no PNG or JPEG images found in %s", dir)
	}

	// Keep the anatomical ordering: slice_2 before slice_10.
	sort.SliceStable(names, func(i, j int) bool {
		ni, nj := extractNumber(names[i]), extractNumber(names[j])
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})

	slices := make([]models.Slice, 0, len(names))
	for i, name := range names {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load image %s: %w", name, err)
		}
		slices = append(slices, models.Slice{Image: img, Index: i, Filename: name})
	}

	vol, err := FromImages(slices)
	if err != nil {
		return nil, nil, err
	}
	return vol, slices, nil
}

// FromImages stacks slice images into a volume of gray intensities in [0,1].
func FromImages(slices []models.Slice) (*models.Volume, error) {
	if len(slices) == 0 {
		return nil, fmt.Errorf("%w: no slices", models.ErrShape)
	}

	bounds := slices[0].Image.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	size := width * height
	data := make([]float64, size*len(slices))

	for i, s := range slices {
		b := s.Image.Bounds()
		if b.Dx() != width || b.Dy() != height {
			return nil, fmt.Errorf("%w: %s is %dx%d, expected %dx%d",
				models.ErrShape, s.Filename, b.Dx(), b.Dy(), width, height)
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[i*size+y*width+x] = gray(s.Image, b.Min.X+x, b.Min.Y+y)
			}
		}
	}

	return models.NewVolume(data, len(slices), height, width)
}

// gray returns the luma of the pixel at (x, y) scaled to [0,1].
func gray(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	num, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return num
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	return img, err
}

// LoadRaw reads a headerless little-endian voxel file of the given
// dimensions. dtype is one of uint8, uint16, float32 or float64.
func LoadRaw(path string, depth, height, width int, dtype string) (*models.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadRaw(bufio.NewReader(f), depth, height, width, dtype)
}

// ReadRaw decodes depth*height*width little-endian voxels from r.
func ReadRaw(r io.Reader, depth, height, width int, dtype string) (*models.Volume, error) {
	if depth < 0 || height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%dx%d", models.ErrShape, depth, height, width)
	}
	n := depth * height * width
	data := make([]float64, n)

	var err error
	switch dtype {
	case "uint8":
		buf := make([]uint8, n)
		if _, err = io.ReadFull(r, buf); err == nil {
			for i, v := range buf {
				data[i] = float64(v)
			}
		}
	case "uint16":
		buf := make([]uint16, n)
		if err = binary.Read(r, binary.LittleEndian, buf); err == nil {
			for i, v := range buf {
				data[i] = float64(v)
			}
		}
	case "float32":
		buf := make([]float32, n)
		if err = binary.Read(r, binary.LittleEndian, buf); err == nil {
			for i, v := range buf {
				data[i] = float64(v)
			}
		}
	case "float64":
		err = binary.Read(r, binary.LittleEndian, data)
	default:
		return nil, fmt.Errorf("unsupported dtype %q (want uint8, uint16, float32 or float64)", dtype)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %d %s voxels: %w", n, dtype, err)
	}

	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite voxel value %v at index %d", v, i)
		}
	}

	return models.NewVolume(data, depth, height, width)
}
