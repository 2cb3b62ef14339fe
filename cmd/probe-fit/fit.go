package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/touchprobe/internal/geom"
	"github.com/banshee-data/touchprobe/internal/probe"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"
)

var primitives = []string{"average", "line", "plane", "circle", "circle2d", "sphere"}

func newFitCmd(root *rootOptions) *cobra.Command {
	var primitive string
	cmd := &cobra.Command{
		Use:   "fit <points.csv>",
		Short: "Fit a primitive to probed points",
		Long:  "Fit one of " + strings.Join(primitives, ", ") + " to the x,y,z rows of a CSV file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			pts, err := readPointsFile(args[0])
			if err != nil {
				return err
			}
			s := probe.NewSession(cfg)
			for _, p := range pts {
				s.AddPoint(p.X, p.Y, p.Z)
			}
			logger.Logf("fitting %s to %d points from %s", primitive, len(pts), args[0])
			return printFit(cmd.OutOrStdout(), s, primitive)
		},
	}
	cmd.Flags().StringVarP(&primitive, "primitive", "p", "sphere", "primitive to fit: "+strings.Join(primitives, "|"))
	return cmd
}

func fmtPoint(p geom.Point) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", p.X, p.Y, p.Z)
}

func printFit(w io.Writer, s *probe.Session, primitive string) error {
	const id = 0
	switch strings.ToLower(primitive) {
	case "average":
		p, err := s.Average(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "average %s\n", fmtPoint(p))
	case "line":
		l, err := s.Line(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "line point=%s direction=%s\n", fmtPoint(l.Point), fmtPoint(l.Direction))
	case "plane":
		pl, err := s.Plane(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "plane point=%s normal=%s\n", fmtPoint(pl.Point), fmtPoint(pl.Normal))
	case "circle":
		c, err := s.Circle(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "circle center=%s radius=%.6f normal=%s\n", fmtPoint(c.Center), c.Radius, fmtPoint(c.Normal))
	case "circle2d":
		c, err := s.Circle2D(id)
		if err != nil {
			return err
		}
		pts := s.Feature(id).Points()
		flat := make([]r2.Vec, len(pts))
		for i, p := range pts {
			flat[i] = r2.Vec{X: p.X, Y: p.Y}
		}
		fmt.Fprintf(w, "circle2d center=(%.6f, %.6f) radius=%.6f rms=%.3g\n", c.Center.X, c.Center.Y, c.Radius, c.RMS(flat))
	case "sphere":
		sp, err := s.Sphere(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "sphere center=%s radius=%.6f rms=%.3g\n", fmtPoint(sp.Center), sp.Radius, sp.RMS(s.Feature(id).Points()))
	default:
		return fmt.Errorf("unknown primitive %q (want one of %s)", primitive, strings.Join(primitives, ", "))
	}
	return nil
}
