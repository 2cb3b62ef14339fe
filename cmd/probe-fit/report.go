package main

import (
	"fmt"
	"os"

	"github.com/banshee-data/touchprobe/internal/calibration"
	"github.com/banshee-data/touchprobe/internal/report"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var pngPath, htmlPath, title string
	cmd := &cobra.Command{
		Use:   "report <table.json>",
		Short: "Render a calibration table as a PNG profile and an HTML heatmap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pngPath == "" && htmlPath == "" {
				return fmt.Errorf("nothing to do: set --png and/or --html")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read table: %w", err)
			}
			t, err := calibration.Unmarshal(data)
			if err != nil {
				return err
			}
			if title == "" {
				title = "Probe calibration " + args[0]
			}

			if pngPath != "" {
				if err := report.RenderRingProfiles(t, title, pngPath); err != nil {
					return err
				}
				logger.Logf("wrote ring profiles to %s", pngPath)
			}
			if htmlPath != "" {
				f, err := os.Create(htmlPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", htmlPath, err)
				}
				if err := report.RenderHeatmapHTML(f, t, title); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("close %s: %w", htmlPath, err)
				}
				logger.Logf("wrote heatmap to %s", htmlPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pngPath, "png", "", "write the ring profile plot to this file")
	cmd.Flags().StringVar(&htmlPath, "html", "", "write the heatmap page to this file")
	cmd.Flags().StringVar(&title, "title", "", "chart title")
	return cmd
}
