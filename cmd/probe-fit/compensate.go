package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/banshee-data/touchprobe/internal/calibration"
	"github.com/banshee-data/touchprobe/internal/probe"
	"github.com/banshee-data/touchprobe/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

func newCompensateCmd(root *rootOptions) *cobra.Command {
	var dbPath, probeID string
	cmd := &cobra.Command{
		Use:   "compensate [table.json] <dx> <dy> <dz>",
		Short: "Look up the compensation vector for a travel direction",
		Long: `Print the compensation vector for a probe travelling along (dx, dy, dz).
The table is read from table.json, or with --db and --probe from the most
recent calibration stored for that probe. Put -- before the direction when
a component is negative.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			var src calibration.Source
			switch {
			case len(args) == 4:
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read table: %w", err)
				}
				src = calibration.FromSerialized(data)
				args = args[1:]
			case dbPath != "" && probeID != "":
				t, err := latestCalibration(dbPath, probeID)
				if err != nil {
					return err
				}
				src = calibration.FromTable(t)
			default:
				return fmt.Errorf("need a table file or --db with --probe")
			}

			var d [3]float64
			for i, a := range args {
				if d[i], err = strconv.ParseFloat(a, 64); err != nil {
					return fmt.Errorf("direction component %q: %w", a, err)
				}
			}

			s := probe.NewSession(cfg)
			s.EnableCompensation()
			if err := s.RestoreCalibration(src); err != nil {
				return err
			}
			s.SetApproachDirection(d[0], d[1], d[2])
			x, y, z := s.Compensation()
			fmt.Fprintf(cmd.OutOrStdout(), "%.9g %.9g %.9g\n", x, y, z)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite calibration database")
	cmd.Flags().StringVar(&probeID, "probe", "", "probe identifier for --db")
	return cmd
}

func latestCalibration(dbPath, probeID string) (*calibration.Table, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rec, err := sqlite.NewCalibrationStore(db).Latest(probeID)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", probeID, err)
	}
	return rec.Table, nil
}
