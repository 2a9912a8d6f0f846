package visualization

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"slicegrid/internal/models"
	"slicegrid/pkg/colormap"
)

// newTestVolume builds a width×height×depth volume filled by fn
func newTestVolume(t *testing.T, width, height, depth int, fn func(x, y, z int) float64) *models.Volume {
	t.Helper()
	data := make([]float64, width*height*depth)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[z*width*height+y*width+x] = fn(x, y, z)
			}
		}
	}
	vol, err := models.NewVolume(data, depth, height, width)
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	return vol
}

// TestNewViewer verifies that the value window defaults to the volume extent
func TestNewViewer(t *testing.T) {
	vol := newTestVolume(t, 10, 10, 5, func(x, y, z int) float64 {
		return float64(x + y + z)
	})

	viewer, err := NewViewer(vol)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}

	if viewer.Min != 0 {
		t.Errorf("Expected min 0, got %f", viewer.Min)
	}
	if viewer.Max != 22 {
		t.Errorf("Expected max 22, got %f", viewer.Max)
	}

	empty, _ := models.NewVolume(nil, 0, 2, 2)
	if _, err := NewViewer(empty); !errors.Is(err, models.ErrEmptyVolume) {
		t.Errorf("Expected ErrEmptyVolume, got %v", err)
	}
}

// TestExtractSlice verifies that slices are correctly extracted from the volume
func TestExtractSlice(t *testing.T) {
	width, height, depth := 10, 8, 5

	// Each slice along Z has a unique value
	vol := newTestVolume(t, width, height, depth, func(x, y, z int) float64 {
		return float64(z)
	})
	viewer, err := NewViewer(vol)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}

	for z := 0; z < depth; z++ {
		img, err := viewer.ExtractSlice("z", z)
		if err != nil {
			t.Fatalf("Failed to extract Z slice at position %d: %v", z, err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != width || bounds.Dy() != height {
			t.Errorf("Expected Z slice dimensions %dx%d, got %dx%d",
				width, height, bounds.Dx(), bounds.Dy())
		}

		gray16Img, ok := img.(*image.Gray16)
		if !ok {
			t.Fatalf("Expected *image.Gray16, got %T", img)
		}

		expected := uint16(float64(z)/float64(depth-1)*65535 + 0.5)
		if got := gray16Img.Gray16At(width/2, height/2).Y; got != expected {
			t.Errorf("Expected Z slice value %d at center, got %d", expected, got)
		}
	}

	imgX, err := viewer.ExtractSlice("x", width/2)
	if err != nil {
		t.Fatalf("Failed to extract X slice: %v", err)
	}
	if b := imgX.Bounds(); b.Dx() != depth || b.Dy() != height {
		t.Errorf("Expected X slice dimensions %dx%d, got %dx%d", depth, height, b.Dx(), b.Dy())
	}

	imgY, err := viewer.ExtractSlice("y", height/2)
	if err != nil {
		t.Fatalf("Failed to extract Y slice: %v", err)
	}
	if b := imgY.Bounds(); b.Dx() != width || b.Dy() != depth {
		t.Errorf("Expected Y slice dimensions %dx%d, got %dx%d", width, depth, b.Dx(), b.Dy())
	}

	if _, err := viewer.ExtractSlice("invalid", 0); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}

	if _, err := viewer.ExtractSlice("z", depth); !errors.Is(err, models.ErrSliceIndex) {
		t.Errorf("Expected ErrSliceIndex for out of bounds position, got %v", err)
	}

	if _, err := viewer.ExtractSlice("x", -1); err == nil {
		t.Error("Expected error for negative position, got nil")
	}
}

// TestExtractSliceClampsWindow verifies values outside the window saturate
func TestExtractSliceClampsWindow(t *testing.T) {
	vol := newTestVolume(t, 3, 1, 1, func(x, y, z int) float64 {
		return []float64{-10, 5, 100}[x]
	})
	viewer, err := NewViewer(vol)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}
	viewer.Min, viewer.Max = 0, 10

	img, err := viewer.ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	g := img.(*image.Gray16)
	for x, want := range []uint16{0, 32768, 65535} {
		if got := g.Gray16At(x, 0).Y; got != want {
			t.Errorf("Pixel %d: expected %d, got %d", x, want, got)
		}
	}
}

// TestExtractSliceWithPalette verifies colored extraction uses the palette ends
func TestExtractSliceWithPalette(t *testing.T) {
	vol := newTestVolume(t, 2, 1, 1, func(x, y, z int) float64 { return float64(x) })
	viewer, err := NewViewer(vol)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}
	viewer.Palette, err = colormap.Lookup("inferno", colormap.Levels)
	if err != nil {
		t.Fatalf("Failed to look up palette: %v", err)
	}

	img, err := viewer.ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	colors := viewer.Palette.Colors()
	for x, want := range []int{0, len(colors) - 1} {
		wr, wg, wb, _ := colors[want].RGBA()
		gr, gg, gb, _ := img.At(x, 0).RGBA()
		if wr>>8 != gr>>8 || wg>>8 != gg>>8 || wb>>8 != gb>>8 {
			t.Errorf("Pixel %d: expected palette color %d, got %v", x, want, img.At(x, 0))
		}
	}
}

// TestExtractSliceNaN verifies NaN voxels map to the low end of the window
func TestExtractSliceNaN(t *testing.T) {
	vol, err := models.NewVolume([]float64{0, math.NaN(), 1, 2}, 1, 2, 2)
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	viewer, err := NewViewer(vol)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}
	if viewer.Min != 0 || viewer.Max != 2 {
		t.Fatalf("Expected window [0, 2], got [%f, %f]", viewer.Min, viewer.Max)
	}

	img, err := viewer.ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	gray, ok := img.(*image.Gray16)
	if !ok {
		t.Fatalf("Expected *image.Gray16, got %T", img)
	}
	if got := gray.Gray16At(1, 0).Y; got != 0 {
		t.Errorf("NaN pixel: expected 0, got %d", got)
	}
	if got := gray.Gray16At(1, 1).Y; got != 65535 {
		t.Errorf("Max pixel: expected 65535, got %d", got)
	}

	viewer.Palette, err = colormap.Lookup("gray", colormap.Levels)
	if err != nil {
		t.Fatalf("Failed to look up palette: %v", err)
	}
	img, err = viewer.ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	wr, wg, wb, _ := viewer.Palette.Colors()[0].RGBA()
	gr, gg, gb, _ := img.At(1, 0).RGBA()
	if wr>>8 != gr>>8 || wg>>8 != gg>>8 || wb>>8 != gb>>8 {
		t.Errorf("NaN pixel: expected lowest palette color, got %v", img.At(1, 0))
	}
}

// TestExtractRegion verifies that 3D regions are correctly extracted
func TestExtractRegion(t *testing.T) {
	width, height, depth := 10, 10, 5
	vol := newTestVolume(t, width, height, depth, func(x, y, z int) float64 {
		return float64(x)/float64(width) + float64(y)/float64(height) + float64(z)/float64(depth)
	})
	viewer, err := NewViewer(vol)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}

	startX, startY, startZ := 2, 3, 1
	sizeX, sizeY, sizeZ := 4, 3, 2

	region, err := viewer.ExtractRegion(startZ, startY, startX, sizeZ, sizeY, sizeX)
	if err != nil {
		t.Fatalf("Failed to extract region: %v", err)
	}

	if region.Width != sizeX || region.Height != sizeY || region.Depth != sizeZ {
		t.Errorf("Expected region %dx%dx%d, got %dx%dx%d",
			sizeZ, sizeY, sizeX, region.Depth, region.Height, region.Width)
	}

	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			for x := 0; x < sizeX; x++ {
				want := vol.At(startZ+z, startY+y, startX+x)
				if got := region.At(z, y, x); got != want {
					t.Errorf("Region value mismatch at (%d,%d,%d): expected %f, got %f",
						x, y, z, want, got)
				}
			}
		}
	}

	if _, err := viewer.ExtractRegion(0, 0, -1, 1, 1, 1); err == nil {
		t.Error("Expected error for negative start coordinate, got nil")
	}
	if _, err := viewer.ExtractRegion(0, 0, 0, 1, 1, 0); err == nil {
		t.Error("Expected error for zero size, got nil")
	}
	if _, err := viewer.ExtractRegion(0, 0, width-1, 1, 1, 2); err == nil {
		t.Error("Expected error for region extending beyond volume, got nil")
	}
}

// TestSaveSliceSequence verifies that a sequence of slices can be saved
func TestSaveSliceSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	width, height, depth := 5, 4, 3
	vol := newTestVolume(t, width, height, depth, func(x, y, z int) float64 {
		return float64(x * y * z)
	})
	viewer, err := NewViewer(vol)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}

	outputDir := filepath.Join(t.TempDir(), "slices")
	n, err := viewer.SaveSliceSequence("z", outputDir)
	if err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}
	if n != depth {
		t.Errorf("Expected %d files, got %d", depth, n)
	}

	for z := 0; z < depth; z++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_z_%03d.png", z))
		f, err := os.Open(filename)
		if err != nil {
			t.Errorf("Expected slice file does not exist: %s", filename)
			continue
		}
		cfg, _, err := image.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Errorf("Failed to decode %s: %v", filename, err)
			continue
		}
		if cfg.Width != width || cfg.Height != height {
			t.Errorf("Expected %dx%d image, got %dx%d", width, height, cfg.Width, cfg.Height)
		}
	}

	if _, err := viewer.SaveSliceSequence("invalid", outputDir); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}
