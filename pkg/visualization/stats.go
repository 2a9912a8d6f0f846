package visualization

import (
	"fmt"
	"math"
	"sort"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"slicegrid/internal/models"
)

// Summary holds intensity statistics of a volume.
type Summary struct {
	Depth, Height, Width int
	Voxels               int
	Min, Max             float64
	Mean, StdDev         float64
}

// Summarize computes intensity statistics over every voxel of vol.
func Summarize(vol *models.Volume) (Summary, error) {
	lo, hi, err := vol.Extent()
	if err != nil {
		return Summary{}, err
	}
	mean, std := stat.MeanStdDev(vol.Data, nil)
	return Summary{
		Depth:  vol.Depth,
		Height: vol.Height,
		Width:  vol.Width,
		Voxels: len(vol.Data),
		Min:    lo,
		Max:    hi,
		Mean:   mean,
		StdDev: std,
	}, nil
}

// Histogram counts voxel values in bins equal-width bins spanning the
// volume's extent. It returns the counts and the bins+1 bin edges.
// NaN voxels are not counted.
func Histogram(vol *models.Volume, bins int) (counts, edges []float64, err error) {
	if bins < 1 {
		return nil, nil, fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}
	lo, hi, err := vol.Extent()
	if err != nil {
		return nil, nil, err
	}

	sorted := make([]float64, 0, len(vol.Data))
	for _, v := range vol.Data {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return nil, nil, fmt.Errorf("%w: every voxel is NaN", models.ErrEmptyVolume)
	}
	sort.Float64s(sorted)

	if hi == lo {
		hi = lo + 1
	}

	edges = floats.Span(make([]float64, bins+1), lo, hi)
	// The top edge is exclusive; nudge it so the maximum lands in the last bin.
	edges[bins] = math.Nextafter(hi, math.Inf(1))

	counts = stat.Histogram(nil, edges, sorted, nil)
	return counts, edges, nil
}

// HistogramChart renders a histogram of vol as an ASCII line chart.
func HistogramChart(vol *models.Volume, bins, height int) (string, error) {
	counts, edges, err := Histogram(vol, bins)
	if err != nil {
		return "", err
	}
	caption := fmt.Sprintf("voxel count per bin, %.4g .. %.4g", edges[0], edges[len(edges)-1])
	return asciigraph.Plot(counts,
		asciigraph.Height(height),
		asciigraph.Width(bins),
		asciigraph.Caption(caption),
	), nil
}
