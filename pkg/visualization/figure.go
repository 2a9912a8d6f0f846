package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"slicegrid/internal/models"
	"slicegrid/pkg/colormap"
)

// Grid and canvas defaults for DrawSlices.
const (
	DefaultRows = 6
	DefaultCols = 6
	DefaultSize = 20 * vg.Inch
)

// ErrSliceIndex is returned when the grid has more cells than the volume has slices.
var ErrSliceIndex = models.ErrSliceIndex

// ErrColorRange is returned when the lower color bound exceeds the upper one.
var ErrColorRange = errors.New("color range minimum exceeds maximum")

// Figure is a canvas holding one Axes per grid cell. Nothing is rasterized
// until the figure is drawn, written or saved.
type Figure struct {
	// Width and Height are the physical canvas size
	Width, Height vg.Length

	// DPI sets the resolution of png, jpg and tif output; zero uses the
	// vgimg default
	DPI int

	// Axes are the subplot regions in the order they were added
	Axes []*Axes
}

// Axes is one subplot of a Figure showing a single volume slice.
type Axes struct {
	// Rect is the region of the figure covered by this subplot
	Rect Rect

	// Index is the volume slice rendered in this subplot
	Index int

	// Min and Max are the values mapped to the ends of the color map
	Min, Max float64

	// ColorMap is the name of the color map used
	ColorMap string

	// Plot is the underlying plot with its axes hidden
	Plot *plot.Plot
}

type drawConfig struct {
	rows, cols int
	min, max   *float64
	cmap       string
	size       vg.Length
}

// Option configures DrawSlices.
type Option func(*drawConfig)

// WithGrid sets the number of subplot rows and columns.
func WithGrid(rows, cols int) Option {
	return func(c *drawConfig) { c.rows, c.cols = rows, cols }
}

// WithMin fixes the value mapped to the lowest color.
func WithMin(v float64) Option {
	return func(c *drawConfig) { c.min = &v }
}

// WithMax fixes the value mapped to the highest color.
func WithMax(v float64) Option {
	return func(c *drawConfig) { c.max = &v }
}

// WithColorMap selects a color map by name, see colormap.Lookup.
func WithColorMap(name string) Option {
	return func(c *drawConfig) { c.cmap = name }
}

// WithSize sets the side length of the square figure.
func WithSize(l vg.Length) Option {
	return func(c *drawConfig) { c.size = l }
}

// DrawSlices creates a new figure and renders the first rows*cols slices of
// vol into a grid of subplots, top-left to bottom-right. Every subplot shares
// the same color range and color map; unless overridden the range is the
// volume's global min/max and the map is inferno.
//
// The volume must hold at least rows*cols slices, otherwise an error
// wrapping ErrSliceIndex is returned. Extra slices are ignored.
func DrawSlices(vol *models.Volume, opts ...Option) (*Figure, error) {
	cfg := drawConfig{
		rows: DefaultRows,
		cols: DefaultCols,
		cmap: colormap.Default,
		size: DefaultSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	fig := &Figure{Width: cfg.size, Height: cfg.size}

	tmin, tmax, err := colorRange(vol, cfg.min, cfg.max)
	if err != nil {
		return nil, err
	}
	if cfg.cmap == "" {
		cfg.cmap = colormap.Default
	}
	pal, err := colormap.Lookup(cfg.cmap, colormap.Levels)
	if err != nil {
		return nil, err
	}

	rects := GridLayout(cfg.rows, cfg.cols)
	slices := vol.Slices()
	if len(rects) > len(slices) {
		return nil, fmt.Errorf("%w: %dx%d grid needs %d slices, volume has %d",
			ErrSliceIndex, cfg.rows, cfg.cols, len(rects), len(slices))
	}

	colors := pal.Colors()
	for i, r := range rects {
		hm := &plotter.HeatMap{
			GridXYZ:   sliceGrid{slices[i]},
			Palette:   pal,
			Min:       tmin,
			Max:       tmax,
			Underflow: colors[0],
			Overflow:  colors[len(colors)-1],
		}
		if tmin == tmax {
			// A zero-width range cannot be scaled; show it as the low end.
			hm.NaN = colors[0]
		}

		p := plot.New()
		p.HideAxes()
		p.X.Padding, p.Y.Padding = 0, 0
		p.Add(sliceImage{hm})

		fig.Axes = append(fig.Axes, &Axes{
			Rect:     r,
			Index:    i,
			Min:      tmin,
			Max:      tmax,
			ColorMap: cfg.cmap,
			Plot:     p,
		})
	}

	return fig, nil
}

func colorRange(vol *models.Volume, lo, hi *float64) (tmin, tmax float64, err error) {
	if lo == nil || hi == nil {
		vmin, vmax, err := vol.Extent()
		if err != nil {
			return 0, 0, fmt.Errorf("resolving color range: %w", err)
		}
		tmin, tmax = vmin, vmax
	}
	if lo != nil {
		tmin = *lo
	}
	if hi != nil {
		tmax = *hi
	}
	if tmin > tmax {
		return 0, 0, fmt.Errorf("%w: %g > %g", ErrColorRange, tmin, tmax)
	}
	return tmin, tmax, nil
}

// Draw renders every subplot of the figure onto dc.
func (f *Figure) Draw(dc draw.Canvas) {
	dc.SetColor(color.White)
	dc.Fill(dc.Rectangle.Path())
	for _, ax := range f.Axes {
		ax.Plot.Draw(ax.canvas(dc))
	}
}

// canvas returns the part of dc covered by the axes rectangle.
func (a *Axes) canvas(dc draw.Canvas) draw.Canvas {
	w := dc.Max.X - dc.Min.X
	h := dc.Max.Y - dc.Min.Y
	lo := vg.Point{
		X: dc.Min.X + vg.Length(a.Rect.Left)*w,
		Y: dc.Min.Y + vg.Length(a.Rect.Bottom)*h,
	}
	return draw.Canvas{
		Canvas: dc,
		Rectangle: vg.Rectangle{
			Min: lo,
			Max: vg.Point{
				X: lo.X + vg.Length(a.Rect.Width)*w,
				Y: lo.Y + vg.Length(a.Rect.Height)*h,
			},
		},
	}
}

// WriterTo returns an io.WriterTo that writes the figure in the given
// format: png, jpg, jpeg, tif, tiff, svg or pdf.
func (f *Figure) WriterTo(format string) (io.WriterTo, error) {
	if f.DPI > 0 {
		if c := f.rasterCanvas(format); c != nil {
			f.Draw(draw.New(c))
			return c, nil
		}
	}
	c, err := draw.NewFormattedCanvas(f.Width, f.Height, format)
	if err != nil {
		return nil, err
	}
	f.Draw(draw.New(c))
	return c, nil
}

// rasterCanvas returns an image canvas at the figure's DPI, or nil for
// vector formats.
func (f *Figure) rasterCanvas(format string) vg.CanvasWriterTo {
	newCanvas := func() *vgimg.Canvas {
		return vgimg.NewWith(vgimg.UseWH(f.Width, f.Height), vgimg.UseDPI(f.DPI))
	}
	switch format {
	case "png":
		return vgimg.PngCanvas{Canvas: newCanvas()}
	case "jpg", "jpeg":
		return vgimg.JpegCanvas{Canvas: newCanvas()}
	case "tif", "tiff":
		return vgimg.TiffCanvas{Canvas: newCanvas()}
	}
	return nil
}

// Save writes the figure to file, choosing the format from its extension.
func (f *Figure) Save(file string) (err error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(file), "."))
	c, err := f.WriterTo(format)
	if err != nil {
		return err
	}

	out, err := os.Create(file)
	if err != nil {
		return err
	}
	defer func() {
		if e := out.Close(); err == nil {
			err = e
		}
	}()

	_, err = c.WriteTo(out)
	return err
}

// Image rasterizes the figure at the given resolution.
func (f *Figure) Image(dpi int) image.Image {
	c := vgimg.NewWith(vgimg.UseWH(f.Width, f.Height), vgimg.UseDPI(dpi))
	f.Draw(draw.New(c))
	return c.Image()
}

// sliceGrid adapts a slice matrix to plotter.GridXYZ. Row 0 of the matrix
// is drawn at the top, as images are displayed.
type sliceGrid struct {
	m mat.Matrix
}

func (g sliceGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g sliceGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g sliceGrid) X(c int) float64 { return float64(c) }
func (g sliceGrid) Y(r int) float64 { return float64(r) }

// sliceImage is a heat map without glyph boxes, so the plot does not pad
// the image away from the subplot edges.
type sliceImage struct {
	*plotter.HeatMap
}

func (sliceImage) GlyphBoxes(*plot.Plot) []plot.GlyphBox { return nil }
