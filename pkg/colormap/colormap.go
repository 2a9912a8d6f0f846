// Package colormap resolves color map names to gonum/plot palettes.
//
// Perceptual maps (inferno, magma, plasma, viridis, gray) are built from
// control colors with a luminance-linear interpolation, so brightness
// increases monotonically with the mapped value.
package colormap

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
)

// Default is the color map used when none is requested.
const Default = "inferno"

// Levels is the number of palette entries used for rendering.
const Levels = 256

// ErrUnknown is returned for names that do not resolve to a color map.
var ErrUnknown = errors.New("unknown color map")

// reversedSuffix flips any registered map, e.g. "inferno_r".
const reversedSuffix = "_r"

// brewerPrefix selects a ColorBrewer sequential palette, e.g. "brewer:Blues".
const brewerPrefix = "brewer:"

type source func(n int) (palette.Palette, error)

var registry = map[string]source{
	"inferno": luminance(
		color.RGBA{0, 0, 4, 255},
		color.RGBA{40, 11, 84, 255},
		color.RGBA{101, 21, 110, 255},
		color.RGBA{159, 42, 99, 255},
		color.RGBA{212, 72, 66, 255},
		color.RGBA{245, 125, 21, 255},
		color.RGBA{250, 193, 39, 255},
		color.RGBA{252, 255, 164, 255},
	),
	"magma": luminance(
		color.RGBA{0, 0, 4, 255},
		color.RGBA{28, 16, 68, 255},
		color.RGBA{79, 18, 123, 255},
		color.RGBA{129, 37, 129, 255},
		color.RGBA{181, 54, 122, 255},
		color.RGBA{229, 80, 100, 255},
		color.RGBA{251, 135, 97, 255},
		color.RGBA{254, 194, 135, 255},
		color.RGBA{252, 253, 191, 255},
	),
	"plasma": luminance(
		color.RGBA{13, 8, 135, 255},
		color.RGBA{75, 3, 161, 255},
		color.RGBA{125, 3, 168, 255},
		color.RGBA{168, 34, 150, 255},
		color.RGBA{203, 70, 121, 255},
		color.RGBA{229, 107, 93, 255},
		color.RGBA{248, 148, 65, 255},
		color.RGBA{253, 195, 40, 255},
		color.RGBA{240, 249, 33, 255},
	),
	"viridis": luminance(
		color.RGBA{68, 1, 84, 255},
		color.RGBA{72, 35, 116, 255},
		color.RGBA{64, 67, 135, 255},
		color.RGBA{52, 94, 141, 255},
		color.RGBA{41, 120, 142, 255},
		color.RGBA{32, 144, 140, 255},
		color.RGBA{34, 167, 132, 255},
		color.RGBA{68, 190, 112, 255},
		color.RGBA{121, 209, 81, 255},
		color.RGBA{189, 222, 38, 255},
		color.RGBA{253, 231, 37, 255},
	),
	"gray": luminance(color.Black, color.White),

	"blackbody":         colorMap(moreland.BlackBody),
	"extendedblackbody": colorMap(moreland.ExtendedBlackBody),
	"kindlmann":         colorMap(moreland.Kindlmann),
	"extendedkindlmann": colorMap(moreland.ExtendedKindlmann),

	"heat": func(n int) (palette.Palette, error) {
		return palette.Heat(n, 1), nil
	},
}

// Lookup returns an n-color palette for name. Names ending in "_r" return
// the reversed map. Names of the form "brewer:<Name>" ignore n and return
// the largest ColorBrewer sequential palette of that name.
func Lookup(name string, n int) (palette.Palette, error) {
	if n < 2 {
		return nil, fmt.Errorf("colormap: need at least 2 colors, got %d", n)
	}
	if name == "" {
		name = Default
	}

	if base, ok := strings.CutSuffix(name, reversedSuffix); ok {
		p, err := Lookup(base, n)
		if err != nil {
			return nil, err
		}
		return reverse(p), nil
	}

	if seq, ok := strings.CutPrefix(name, brewerPrefix); ok {
		return sequential(seq)
	}

	src, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return src(n)
}

// Names returns the registered color map names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func luminance(controls ...color.Color) source {
	return func(n int) (palette.Palette, error) {
		cm, err := moreland.NewLuminance(controls)
		if err != nil {
			return nil, err
		}
		cm.SetMin(0)
		cm.SetMax(1)
		return cm.Palette(n), nil
	}
}

func colorMap(fn func() palette.ColorMap) source {
	return func(n int) (palette.Palette, error) {
		cm := fn()
		cm.SetMin(0)
		cm.SetMax(1)
		return cm.Palette(n), nil
	}
}

func sequential(name string) (palette.Palette, error) {
	sizes, ok := brewer.SequentialPalettes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, brewerPrefix+name)
	}
	largest := 0
	for size := range sizes {
		if size > largest {
			largest = size
		}
	}
	return brewer.GetPalette(brewer.TypeSequential, name, largest)
}

type colors []color.Color

func (c colors) Colors() []color.Color { return c }

func reverse(p palette.Palette) palette.Palette {
	src := p.Colors()
	out := make(colors, len(src))
	for i, c := range src {
		out[len(src)-1-i] = c
	}
	return out
}
