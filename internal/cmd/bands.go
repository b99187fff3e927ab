package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/bandchart/model"
)

func newBandsCommand(a *app) *cobra.Command {
	var (
		sensor string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "bands",
		Short: "List catalog bands and where each one is drawn",
		Long: `List the bands of the active catalog with the display window each one
lands in. Bands that straddle a window edge, sit in the excluded gap, or lie
outside the transmission curve are listed with their reason and are not
drawn.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.buildPipeline(cmd.Context())
			if err != nil {
				return err
			}
			bands, err := p.catalog.BandsFor(model.ParseSelection(sensor))
			if err != nil {
				return err
			}
			rows := make([]bandRow, 0, len(bands))
			for _, b := range bands {
				rows = append(rows, p.row(b))
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			return printBands(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVar(&sensor, "sensor", "", "only list this sensor's bands")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

type bandRow struct {
	Sensor      string  `json:"sensor"`
	Code        string  `json:"code"`
	Low         float64 `json:"low"`
	High        float64 `json:"high"`
	Resolution  string  `json:"resolution"`
	Placement   string  `json:"placement"`
	Window      string  `json:"window,omitempty"`
	Description string  `json:"description"`
}

func (p *pipeline) row(b model.Band) bandRow {
	r := bandRow{
		Sensor:      b.Sensor,
		Code:        b.Code,
		Low:         b.Range.Low,
		High:        b.Range.High,
		Resolution:  b.Resolution,
		Description: b.Description,
	}
	pl, ok := p.assignment.Placement(b.Key())
	if !ok {
		return r
	}
	r.Placement = pl.Containment.String()
	if pl.Containment == model.Contained && pl.WindowIndex >= 0 && pl.WindowIndex < len(p.assignment.Windows) {
		r.Window = p.assignment.Windows[pl.WindowIndex].Window.Label()
	}
	return r
}

func printBands(w io.Writer, rows []bandRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SENSOR\tBAND\tRANGE (μm)\tRESOLUTION\tPLACEMENT\tDESCRIPTION")
	for _, r := range rows {
		placement := r.Placement
		if r.Window != "" {
			placement = r.Window
		}
		fmt.Fprintf(tw, "%s\t%s\t%g-%g\t%s\t%s\t%s\n", r.Sensor, r.Code, r.Low, r.High, r.Resolution, placement, r.Description)
	}
	return tw.Flush()
}
