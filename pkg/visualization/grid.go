package visualization

import (
	"gonum.org/v1/gonum/floats"
)

// Rect is a subplot region in figure-fraction coordinates, where (0,0) is
// the bottom-left and (1,1) the top-right corner of the figure.
type Rect struct {
	Left, Bottom, Width, Height float64
}

// GridLayout returns the nr*nc cell rectangles of an nr×nc grid that
// tiles the whole figure without margins. Cells are ordered row-major
// from the top row down, left to right within a row, so cell i holds
// slice i. Non-positive nr or nc yield no cells.
func GridLayout(nr, nc int) []Rect {
	if nr <= 0 || nc <= 0 {
		return nil
	}

	lefts := floats.Span(make([]float64, nc+1), 0, 1)[:nc]
	bottoms := floats.Span(make([]float64, nr+1), 1, 0)[1:]
	width := 1 / float64(nc)
	height := 1 / float64(nr)

	rects := make([]Rect, 0, nr*nc)
	for _, b := range bottoms {
		for _, l := range lefts {
			rects = append(rects, Rect{Left: l, Bottom: b, Width: width, Height: height})
		}
	}
	return rects
}
