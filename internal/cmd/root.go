// Package cmd implements the bandchart command line.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/bandchart/internal/config"
	"github.com/signalsfoundry/bandchart/internal/logging"
)

// app carries the state shared by every subcommand once the root's
// PersistentPreRunE has loaded configuration.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     logging.Logger
}

// NewRootCommand builds the bandchart command tree with its own viper
// instance.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "bandchart",
		Short: "Compare satellite spectral bands against atmospheric transmission",
		Long: `bandchart draws the spectral bands of Landsat 9 and Sentinel-2 (or any
catalog you supply) over an illustrative atmospheric transmission curve.

The wavelength axis is split into display windows; the mid-infrared gap
between them is left out and annotated. Use "serve" for the live, filterable
page or "export" for a static PNG/SVG.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./bandchart.yaml or $HOME/.config/bandchart/bandchart.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("catalog", "", "YAML band catalog (default: built-in Landsat 9 / Sentinel-2 table)")
	_ = a.v.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("logging.format", pf.Lookup("log-format"))
	_ = a.v.BindPFlag("catalog.path", pf.Lookup("catalog"))

	root.AddCommand(
		newServeCommand(a),
		newExportCommand(a),
		newBandsCommand(a),
	)
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) init(stderr io.Writer) error {
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.log = logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
		Output:    stderr,
	})
	return nil
}
