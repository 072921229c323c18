// Command georefwarp rectifies a scanned image onto the target coordinate
// system of a georeferencing project.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"georef/internal/config"
	"georef/internal/georef"
	"georef/internal/logging"
	"georef/internal/project"
	"georef/internal/raster"
	"georef/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("georefwarp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	projectPath := fs.String("project", "", "Path to project file")
	in := fs.String("in", "", "Source image (default: the project's image)")
	out := fs.String("out", "", "Output image (.tif, .png or .jpg)")
	transform := config.AddTransformFlags(fs)
	width := fs.Int("width", 0, "Output width in pixels (default from config)")
	workers := fs.Int("workers", 0, "Parallel workers (default one per CPU)")
	worldFile := fs.Bool("worldfile", true, "Write a world file next to the output image")
	configPath := fs.String("config", "", "Path to YAML config file")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String("georefwarp"))
		return 0
	}
	if *projectPath == "" || *out == "" {
		fmt.Fprintln(stderr, "Usage: georefwarp -project <file> -out <image> [-in <image>] [-method m] [-order n] [-scaling s] [-width px] [-worldfile=false]")
		return 2
	}
	if !raster.IsSupportedFormat(*out) {
		fmt.Fprintf(stderr, "georefwarp: unsupported output format %s\n", *out)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "georefwarp: %v\n", err)
		return 1
	}
	log := logging.Setup(stderr, cfg.Log.Level, cfg.Log.Format)

	proj, err := project.Load(*projectPath)
	if err != nil {
		log.Error("georefwarp: cannot load project", "err", err)
		return 1
	}
	if err := proj.Resolve(cfg.Transform, transform); err != nil {
		log.Error("georefwarp: bad settings", "err", err)
		return 2
	}
	if *width <= 0 {
		*width = cfg.Warp.Width
	}
	if *workers <= 0 {
		*workers = cfg.Warp.Workers
	}

	srcPath := *in
	if srcPath == "" {
		srcPath = proj.GetImagePath(*projectPath)
	}
	if srcPath == "" {
		log.Error("georefwarp: no source image given and the project names none")
		return 2
	}

	e := georef.New(georef.WithLogger(log))
	if err := proj.Apply(e); err != nil {
		log.Error("georefwarp: fit failed", "err", err)
		return 1
	}

	src, err := raster.Load(srcPath)
	if err != nil {
		log.Error("georefwarp: cannot load image", "err", err)
		return 1
	}

	grid, err := raster.NewGrid(e.Extent(true), *width)
	if err != nil {
		log.Error("georefwarp: bad output grid", "err", err)
		return 1
	}

	start := time.Now()
	dst, unmapped := raster.Warp(src, e, grid, *workers)
	m, o := e.Method()
	log.Info("georefwarp: image rectified",
		"method", m.String(), "order", o,
		"width", grid.Width, "height", grid.Height, "cell", grid.Cell,
		"unmapped", unmapped, "elapsed", time.Since(start).Round(time.Millisecond))

	if err := raster.Save(*out, dst); err != nil {
		log.Error("georefwarp: cannot save image", "err", err)
		return 1
	}
	if *worldFile {
		wf := raster.WorldFilePath(*out)
		if err := raster.WriteWorldFile(wf, grid.GeoTransform()); err != nil {
			log.Error("georefwarp: cannot save world file", "err", err)
			return 1
		}
		log.Debug("georefwarp: world file written", "path", wf)
	}
	ext := grid.Extent
	fmt.Fprintf(stdout, "%s: %dx%d, x %g..%g, y %g..%g, cell %g\n",
		*out, grid.Width, grid.Height, ext.XMin(), ext.XMax(), ext.YMin(), ext.YMax(), grid.Cell)
	return 0
}
