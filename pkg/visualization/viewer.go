package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/palette"

	"slicegrid/internal/models"
)

// Viewer extracts orthogonal 2D slices from a volume and writes them as
// images. Voxel values are mapped linearly from [Min, Max] to the output
// intensity range and clamped outside it.
type Viewer struct {
	vol *models.Volume

	// Min and Max define the displayed value window
	Min, Max float64

	// Palette colors extracted slices; nil produces 16-bit grayscale
	Palette palette.Palette
}

// NewViewer creates a viewer for vol whose value window is the volume's extent.
func NewViewer(vol *models.Volume) (*Viewer, error) {
	lo, hi, err := vol.Extent()
	if err != nil {
		return nil, err
	}
	return &Viewer{vol: vol, Min: lo, Max: hi}, nil
}

// norm maps v into [0,1] using the viewer's window. NaN maps to 0.
func (v *Viewer) norm(val float64) float64 {
	if v.Max <= v.Min || math.IsNaN(val) {
		return 0
	}
	return math.Max(0, math.Min(1, (val-v.Min)/(v.Max-v.Min)))
}

// ExtractSlice extracts a 2D slice along the given axis. "z" cuts across
// the first (slice) axis and yields Width×Height images, "y" yields
// Width×Depth and "x" yields Depth×Height.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var (
		w, h int
		at   func(i, j int) float64
	)
	vol := v.vol

	switch axis {
	case "x", "X":
		if position >= vol.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, vol.Width)
		}
		w, h = vol.Depth, vol.Height
		at = func(z, y int) float64 { return vol.At(z, y, position) }

	case "y", "Y":
		if position >= vol.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, vol.Height)
		}
		w, h = vol.Width, vol.Depth
		at = func(x, z int) float64 { return vol.At(z, position, x) }

	case "z", "Z":
		if position >= vol.Depth {
			return nil, fmt.Errorf("%w: position %d exceeds depth %d", models.ErrSliceIndex, position, vol.Depth)
		}
		w, h = vol.Width, vol.Height
		at = func(x, y int) float64 { return vol.At(position, y, x) }

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	if v.Palette != nil {
		pal := v.Palette.Colors()
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				idx := int(v.norm(at(i, j))*float64(len(pal)-1) + 0.5)
				img.Set(i, j, pal[idx])
			}
		}
		return img, nil
	}

	img := image.NewGray16(image.Rect(0, 0, w, h))
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			img.SetGray16(i, j, color.Gray16{Y: uint16(v.norm(at(i, j))*65535 + 0.5)})
		}
	}
	return img, nil
}

// ExtractRegion copies a sub-volume starting at (startZ, startY, startX).
func (v *Viewer) ExtractRegion(startZ, startY, startX, sizeZ, sizeY, sizeX int) (*models.Volume, error) {
	if startX < 0 || startY < 0 || startZ < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}
	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}
	vol := v.vol
	if startX+sizeX > vol.Width || startY+sizeY > vol.Height || startZ+sizeZ > vol.Depth {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := make([]float64, 0, sizeX*sizeY*sizeZ)
	for z := startZ; z < startZ+sizeZ; z++ {
		for y := startY; y < startY+sizeY; y++ {
			row := z*vol.Width*vol.Height + y*vol.Width
			region = append(region, vol.Data[row+startX:row+startX+sizeX]...)
		}
	}
	return models.NewVolume(region, sizeZ, sizeY, sizeX)
}

// SaveSlice saves an extracted slice as a PNG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveSliceSequence extracts every slice along axis and saves them to
// outputDir as slice_<axis>_<NNN>.png. It returns the number of files written.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) (int, error) {
	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.vol.Width
	case "y", "Y":
		maxPos = v.vol.Height
	case "z", "Z":
		maxPos = v.vol.Depth
	default:
		return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return pos, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return pos, fmt.Errorf("saving %s: %w", filename, err)
		}
	}

	return maxPos, nil
}
