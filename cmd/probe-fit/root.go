package main

import (
	"github.com/banshee-data/touchprobe/internal/config"
	"github.com/banshee-data/touchprobe/internal/monitoring"
	"github.com/banshee-data/touchprobe/internal/version"
	"github.com/spf13/cobra"
)

var logger = monitoring.Component("probe-fit")

type rootOptions struct {
	configPath string
	quiet      bool
}

// load returns the probe config named by --config, or the defaults.
func (o *rootOptions) load() (*config.ProbeConfig, error) {
	if o.configPath == "" {
		return config.EmptyProbeConfig(), nil
	}
	return config.LoadProbeConfig(o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "probe-fit",
		Short: "Fit touch-probe samples and manage probe calibration tables",
		Long: `probe-fit fits points, lines, planes, circles and spheres to touch-probe
samples read from CSV files (x,y,z per row), and builds, queries and renders
the spherical tip compensation table of a probe.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.quiet {
				monitoring.SetLogger(nil)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "probe config JSON file")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress diagnostic logging")

	root.AddCommand(
		newFitCmd(opts),
		newCalibrateCmd(opts),
		newCompensateCmd(opts),
		newReportCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.String())
		},
	}
}
