package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/touchprobe/internal/geom"
)

// readPoints parses x,y,z rows. Extra columns are ignored, '#' starts a
// comment line and a non-numeric first row is taken as a header.
func readPoints(r io.Reader) ([]geom.Point, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var pts []geom.Point
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read points: %w", err)
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("row %d: want x,y,z, got %d fields", row, len(rec))
		}
		var v [3]float64
		for i := range v {
			v[i], err = strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				break
			}
		}
		if err != nil {
			if row == 1 && len(pts) == 0 {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		pts = append(pts, geom.NewPoint(v[0], v[1], v[2]))
	}
	return pts, nil
}

func readPointsFile(path string) ([]geom.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readPoints(f)
}
