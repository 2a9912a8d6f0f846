package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"slicegrid/internal/models"
	"slicegrid/pkg/colormap"
	"slicegrid/pkg/config"
	"slicegrid/pkg/visualization"
	"slicegrid/pkg/volumeio"
)

// loadConfig reads the configuration file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Output.Verbose = verbose
	}
	if flags.Changed("rows") {
		cfg.Render.Rows = rows
	}
	if flags.Changed("cols") {
		cfg.Render.Cols = cols
	}
	if flags.Changed("cmap") {
		cfg.Render.ColorMap = cmapName
	}
	if flags.Changed("tmin") {
		v := tmin
		cfg.Render.TMin = &v
	}
	if flags.Changed("tmax") {
		v := tmax
		cfg.Render.TMax = &v
	}
	if flags.Changed("size") {
		cfg.Render.SizeInches = sizeInches
	}
	if flags.Changed("dpi") {
		cfg.Render.DPI = dpi
	}
	if flags.Changed("depth") {
		cfg.Input.Depth = rawDepth
	}
	if flags.Changed("height") {
		cfg.Input.Height = rawHeight
	}
	if flags.Changed("width") {
		cfg.Input.Width = rawWidth
	}
	if flags.Changed("dtype") {
		cfg.Input.DType = rawDType
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadVolume reads a directory of slice images or a raw voxel file.
func loadVolume(cfg *config.Config, input string) (*models.Volume, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var vol *models.Volume
	if info.IsDir() {
		vol, _, err = volumeio.LoadDir(input)
	} else {
		in := cfg.Input
		if in.Depth <= 0 || in.Height <= 0 || in.Width <= 0 {
			return nil, fmt.Errorf("raw input %s needs --depth, --height and --width", input)
		}
		vol, err = volumeio.LoadRaw(input, in.Depth, in.Height, in.Width, in.DType)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", input, err)
	}

	if cfg.Output.Verbose {
		fmt.Printf("Loaded %d slices of %dx%d from %s in %s\n",
			vol.Depth, vol.Width, vol.Height, input, time.Since(start).Round(time.Millisecond))
	}
	return vol, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	vol, err := loadVolume(cfg, args[0])
	if err != nil {
		return err
	}

	fig, err := visualization.DrawSlices(vol, cfg.RenderOptions()...)
	if err != nil {
		return err
	}
	fig.DPI = cfg.Render.DPI

	out := outputFile
	if out == "" {
		name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		out = filepath.Join(cfg.Output.Directory, name+"_grid."+cfg.Output.Format)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}

	start := time.Now()
	if err := fig.Save(out); err != nil {
		return fmt.Errorf("saving figure: %w", err)
	}

	if cfg.Output.Verbose {
		ax := fig.Axes
		fmt.Printf("Rendered %dx%d grid (%d of %d slices)\n", cfg.Render.Rows, cfg.Render.Cols, len(ax), vol.Depth)
		if len(ax) > 0 {
			fmt.Printf("Color map: %s, range [%g, %g]\n", ax[0].ColorMap, ax[0].Min, ax[0].Max)
		}
		fmt.Printf("Figure saved to %s in %s\n", out, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func runSlices(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	vol, err := loadVolume(cfg, args[0])
	if err != nil {
		return err
	}

	viewer, err := visualization.NewViewer(vol)
	if err != nil {
		return err
	}
	if cfg.Render.TMin != nil {
		viewer.Min = *cfg.Render.TMin
	}
	if cfg.Render.TMax != nil {
		viewer.Max = *cfg.Render.TMax
	}
	if colorize || cmd.Flags().Changed("cmap") {
		viewer.Palette, err = colormap.Lookup(cfg.Render.ColorMap, colormap.Levels)
		if err != nil {
			return err
		}
	}

	dir := slicesDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.Output.Directory, dir)
	}
	for _, axis := range axes {
		axisDir := filepath.Join(dir, axis)
		n, err := viewer.SaveSliceSequence(axis, axisDir)
		if err != nil {
			return fmt.Errorf("%s-axis slices: %w", axis, err)
		}
		if cfg.Output.Verbose {
			fmt.Printf("Saved %d %s-axis slices to %s\n", n, axis, axisDir)
		}
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	vol, err := loadVolume(cfg, args[0])
	if err != nil {
		return err
	}

	s, err := visualization.Summarize(vol)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Dimensions\t%d x %d x %d (slices x rows x cols)\n", s.Depth, s.Height, s.Width)
	fmt.Fprintf(w, "Voxels\t%s (%s in memory)\n", humanize.Comma(int64(s.Voxels)), humanize.IBytes(uint64(s.Voxels)*8))
	fmt.Fprintf(w, "Min / Max\t%g / %g\n", s.Min, s.Max)
	fmt.Fprintf(w, "Mean / StdDev\t%.6g / %.6g\n", s.Mean, s.StdDev)
	fmt.Fprintf(w, "Default grid\t%dx%d (%d slices needed)\n",
		cfg.Render.Rows, cfg.Render.Cols, cfg.Render.Rows*cfg.Render.Cols)
	if err := w.Flush(); err != nil {
		return err
	}

	chart, err := visualization.HistogramChart(vol, bins, 10)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, chart)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.CreateDefaultConfigFile(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", path)
	return nil
}

func runColormaps(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	for _, name := range colormap.Names() {
		marker := ""
		if name == colormap.Default {
			marker = " (default)"
		}
		fmt.Fprintf(out, "%s%s\n", name, marker)
	}
	fmt.Fprintln(out, "Append _r to reverse a map; use brewer:<Name> for ColorBrewer sequential palettes.")
}
