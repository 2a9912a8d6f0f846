package models

import (
	"errors"
	"fmt"
	"image"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape is returned when voxel data does not match the declared dimensions.
	ErrShape = errors.New("data length does not match volume dimensions")

	// ErrEmptyVolume is returned when an operation needs at least one voxel.
	ErrEmptyVolume = errors.New("volume has no voxels")

	// ErrSliceIndex is returned when a slice index falls outside the first axis.
	ErrSliceIndex = errors.New("slice index out of range")
)

// Slice represents a single 2D image of a stack with its source metadata
type Slice struct {
	// Image is the decoded slice image
	Image image.Image

	// Index is the position of this slice in the sequence
	Index int

	// Filename is the original filename of the slice
	Filename string
}

// Volume is a stack of 2D slices. The first axis (Depth) indexes slices,
// Height and Width span the image plane.
type Volume struct {
	// Data is the 3D volume data as a 1D array in row-major order:
	// index = z*Width*Height + y*Width + x
	Data []float64

	// Width is the number of columns of every slice
	Width int

	// Height is the number of rows of every slice
	Height int

	// Depth is the number of slices
	Depth int

	// VoxelSize is the physical size of each voxel in mm
	VoxelSize struct {
		X, Y, Z float64
	}
}

// NewVolume wraps data as a depth×height×width volume. The data is not copied.
func NewVolume(data []float64, depth, height, width int) (*Volume, error) {
	if width <= 0 || height <= 0 || depth < 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%dx%d", ErrShape, depth, height, width)
	}
	if len(data) != depth*height*width {
		return nil, fmt.Errorf("%w: have %d values, want %d (%dx%dx%d)",
			ErrShape, len(data), depth*height*width, depth, height, width)
	}
	v := &Volume{Data: data, Width: width, Height: height, Depth: depth}
	v.VoxelSize.X, v.VoxelSize.Y, v.VoxelSize.Z = 1, 1, 1
	return v, nil
}

// Len returns the number of slices along the first axis.
func (v *Volume) Len() int {
	return v.Depth
}

// At returns the voxel at slice z, row y and column x.
func (v *Volume) At(z, y, x int) float64 {
	return v.Data[z*v.Width*v.Height+y*v.Width+x]
}

// Slice returns slice z as a Height×Width matrix sharing the volume's storage.
func (v *Volume) Slice(z int) (*mat.Dense, error) {
	if z < 0 || z >= v.Depth {
		return nil, fmt.Errorf("%w: index %d, volume has %d slices", ErrSliceIndex, z, v.Depth)
	}
	size := v.Width * v.Height
	return mat.NewDense(v.Height, v.Width, v.Data[z*size:(z+1)*size]), nil
}

// Slices splits the volume along its first axis, one matrix per slice.
func (v *Volume) Slices() []*mat.Dense {
	out := make([]*mat.Dense, v.Depth)
	for z := range out {
		out[z], _ = v.Slice(z)
	}
	return out
}

// Extent returns the global minimum and maximum voxel values.
func (v *Volume) Extent() (min, max float64, err error) {
	if len(v.Data) == 0 {
		return 0, 0, ErrEmptyVolume
	}
	return floats.Min(v.Data), floats.Max(v.Data), nil
}
