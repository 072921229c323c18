// Command georef fits the transform stored in a project file and converts
// coordinates read from stdin, one "x y" pair per line.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"georef/internal/config"
	"georef/internal/georef"
	"georef/internal/logging"
	"georef/internal/project"
	"georef/internal/version"
	"georef/pkg/geometry"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("georef", flag.ContinueOnError)
	fs.SetOutput(stderr)
	projectPath := fs.String("project", "", "Path to project file")
	transform := config.AddTransformFlags(fs)
	inverse := fs.Bool("inverse", false, "Convert from target to source coordinates")
	residuals := fs.Bool("residuals", false, "Print per-reference residuals and exit")
	configPath := fs.String("config", "", "Path to YAML config file")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String("georef"))
		return 0
	}
	if *projectPath == "" {
		fmt.Fprintln(stderr, "Usage: georef -project <file> [-method m] [-order n] [-scaling s] [-inverse] [-residuals]")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "georef: %v\n", err)
		return 1
	}
	log := logging.Setup(stderr, cfg.Log.Level, cfg.Log.Format)

	proj, err := project.Load(*projectPath)
	if err != nil {
		log.Error("georef: cannot load project", "err", err)
		return 1
	}
	if err := proj.Resolve(cfg.Transform, transform); err != nil {
		log.Error("georef: bad settings", "err", err)
		return 2
	}

	e := georef.New(georef.WithLogger(log))
	if err := proj.Apply(e); err != nil {
		log.Error("georef: fit failed", "err", err)
		return 1
	}
	m, o := e.Method()
	log.Info("georef: project fitted", "project", proj.Name, "method", m.String(), "order", o, "references", e.Count())

	if *residuals {
		if err := writeResiduals(stdout, proj, e); err != nil {
			log.Error("georef: residuals", "err", err)
			return 1
		}
		return 0
	}

	failed, err := convertLines(stdin, stdout, e, *inverse, log)
	if err != nil {
		log.Error("georef: conversion aborted", "err", err)
		return 1
	}
	if failed > 0 {
		log.Warn("georef: some points could not be converted", "failed", failed)
	}
	return 0
}

func writeResiduals(w io.Writer, proj *project.File, e *georef.Engine) error {
	res, err := e.Residuals()
	if err != nil {
		return err
	}
	rms, err := e.RMSError()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for i, r := range res {
		name := proj.References[i].Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(bw, "%d\t%s\t%s\n", i, name, formatFloat(r))
	}
	fmt.Fprintf(bw, "rms\t%s\n", formatFloat(rms))
	return bw.Flush()
}

// convertLines converts each "x y" line of r and writes the result to w.
// Lines that cannot be parsed or converted produce "nan nan" so output
// lines stay aligned with input lines. Blank lines and lines starting with
// '#' are copied through.
func convertLines(r io.Reader, w io.Writer, e *georef.Engine, inverse bool, log *slog.Logger) (int, error) {
	sc := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	failed := 0

	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			fmt.Fprintln(bw, text)
			continue
		}

		p, err := parsePoint(text)
		if err == nil {
			p, err = e.Convert(p, inverse)
		}
		if err != nil {
			failed++
			log.Warn("georef: point not converted", "line", line, "err", err)
			fmt.Fprintln(bw, "nan nan")
			continue
		}
		fmt.Fprintf(bw, "%s %s\n", formatFloat(p.X), formatFloat(p.Y))
	}
	if err := sc.Err(); err != nil {
		return failed, fmt.Errorf("read input: %w", err)
	}
	return failed, bw.Flush()
}

var errPointSyntax = errors.New(`expected "x y"`)

func parsePoint(text string) (geometry.Point2D, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) != 2 {
		return geometry.Point2D{}, fmt.Errorf("%q: %w", text, errPointSyntax)
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("%q: %w", text, errPointSyntax)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return geometry.Point2D{}, fmt.Errorf("%q: %w", text, errPointSyntax)
	}
	return geometry.Point2D{X: x, Y: y}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
