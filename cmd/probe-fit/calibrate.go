package main

import (
	"fmt"
	"os"

	"github.com/banshee-data/touchprobe/internal/calibration"
	"github.com/banshee-data/touchprobe/internal/probe"
	"github.com/banshee-data/touchprobe/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

type calibrateOptions struct {
	nominal float64
	tip     float64
	rings   int
	perRing int
	out     string
	dbPath  string
	probeID string
	notes   string
}

func newCalibrateCmd(root *rootOptions) *cobra.Command {
	o := &calibrateOptions{}
	cmd := &cobra.Command{
		Use:   "calibrate <samples.csv>",
		Short: "Build a probe tip calibration table from sphere samples",
		Long: `Build the compensation table from samples taken on a calibration sphere:
one pole sample followed by every ring in order. The table is written as
JSON to --out (or stdout) and optionally stored in a SQLite database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("nominal") {
				o.nominal = cfg.GetNominalSphereDiameter()
			}
			if !flags.Changed("tip") {
				o.tip = cfg.GetProbeTipDiameter()
			}
			if !flags.Changed("rings") {
				o.rings = cfg.GetCalibrationRings()
			}
			if !flags.Changed("per-ring") {
				o.perRing = cfg.GetCalibrationSamplesPerRing()
			}
			if o.nominal <= 0 {
				return fmt.Errorf("nominal sphere diameter must be positive, got %g", o.nominal)
			}
			if o.dbPath != "" && o.probeID == "" {
				return fmt.Errorf("--probe is required with --db")
			}

			pts, err := readPointsFile(args[0])
			if err != nil {
				return err
			}
			s := probe.NewSession(cfg)
			for _, p := range pts {
				s.AddPoint(p.X, p.Y, p.Z)
			}
			if err := s.BuildCalibration(o.nominal, o.tip, 0, o.rings, o.perRing); err != nil {
				return err
			}
			data, err := s.ExportCalibration()
			if err != nil {
				return err
			}

			if o.out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else if err := os.WriteFile(o.out, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write table: %w", err)
			}

			if o.dbPath != "" {
				rec, err := saveCalibration(o, s.Calibration())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "stored calibration %s for probe %s\n", rec.CalibrationID, rec.ProbeID)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&o.nominal, "nominal", 0, "nominal calibration sphere diameter")
	f.Float64Var(&o.tip, "tip", 0, "probe tip diameter")
	f.IntVar(&o.rings, "rings", 3, "rings below the pole")
	f.IntVar(&o.perRing, "per-ring", 8, "samples per ring")
	f.StringVarP(&o.out, "out", "o", "", "write the table JSON to this file")
	f.StringVar(&o.dbPath, "db", "", "store the table in this SQLite database")
	f.StringVar(&o.probeID, "probe", "", "probe identifier for --db")
	f.StringVar(&o.notes, "notes", "", "notes stored with the table")
	return cmd
}

func saveCalibration(o *calibrateOptions, t *calibration.Table) (*sqlite.CalibrationRecord, error) {
	db, err := sqlite.Open(o.dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return sqlite.NewCalibrationStore(db).Save(o.probeID, t, sqlite.Meta{
		NominalDiameter: o.nominal,
		TipDiameter:     o.tip,
		Notes:           o.notes,
	})
}
