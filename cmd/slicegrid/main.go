package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool

	// raw volume layout, used when the input is a file
	rawDepth, rawHeight, rawWidth int
	rawDType                      string

	// render flags
	rows, cols int
	cmapName   string
	tmin, tmax float64
	sizeInches float64
	dpi        int
	outputFile string

	// slices flags
	axes      []string
	slicesDir string
	colorize  bool

	// info flags
	bins int
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("slicegrid: ")

	rootCmd := &cobra.Command{
		Use:           "slicegrid",
		Short:         "render volume slices as image grids",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "slicegrid.yaml", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print progress information")
	rootCmd.PersistentFlags().IntVar(&rawDepth, "depth", 0, "slice count of a raw input volume")
	rootCmd.PersistentFlags().IntVar(&rawHeight, "height", 0, "rows per slice of a raw input volume")
	rootCmd.PersistentFlags().IntVar(&rawWidth, "width", 0, "columns per slice of a raw input volume")
	rootCmd.PersistentFlags().StringVar(&rawDType, "dtype", "", "voxel type of a raw input volume: uint8, uint16, float32, float64")

	renderCmd := &cobra.Command{
		Use:   "render <input>",
		Short: "draw the first rows*cols slices into a grid figure",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
	renderCmd.Flags().IntVar(&rows, "rows", 0, "subplot rows (default from config: 6)")
	renderCmd.Flags().IntVar(&cols, "cols", 0, "subplot columns (default from config: 6)")
	renderCmd.Flags().StringVar(&cmapName, "cmap", "", "color map name (default from config: inferno)")
	renderCmd.Flags().Float64Var(&tmin, "tmin", 0, "value mapped to the lowest color (default: volume minimum)")
	renderCmd.Flags().Float64Var(&tmax, "tmax", 0, "value mapped to the highest color (default: volume maximum)")
	renderCmd.Flags().Float64Var(&sizeInches, "size", 0, "figure side length in inches (default from config: 20)")
	renderCmd.Flags().IntVar(&dpi, "dpi", 0, "raster resolution (default from config: 96)")
	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file; the extension selects the format")

	slicesCmd := &cobra.Command{
		Use:   "slices <input>",
		Short: "export orthogonal slice sequences as PNG files",
		Args:  cobra.ExactArgs(1),
		RunE:  runSlices,
	}
	slicesCmd.Flags().StringSliceVar(&axes, "axes", []string{"x", "y", "z"}, "axes to cut along")
	slicesCmd.Flags().StringVar(&slicesDir, "out", "slices", "directory for the slice images")
	slicesCmd.Flags().StringVar(&cmapName, "cmap", "", "color the slices with this color map")
	slicesCmd.Flags().BoolVar(&colorize, "color", false, "color the slices with the configured color map")

	infoCmd := &cobra.Command{
		Use:   "info <input>",
		Short: "print volume dimensions, statistics and an intensity histogram",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
	infoCmd.Flags().IntVar(&bins, "bins", 64, "histogram bins")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage the configuration file",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	})

	colormapsCmd := &cobra.Command{
		Use:   "colormaps",
		Short: "list the available color maps",
		Args:  cobra.NoArgs,
		Run:   runColormaps,
	}

	rootCmd.AddCommand(renderCmd, slicesCmd, infoCmd, configCmd, colormapsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}
