package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/szooyang/ai-project01/internal/exporter"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

func stationCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON  bool
		csvFile string
	)

	c := &cobra.Command{
		Use:     "station NAME",
		Short:   "Show period averages and per-line grades of a station",
		Example: "  ridership station 강남\n  ridership station 강남 --csv",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			report, err := e.service.StationReport(ctx, nil, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(e.out, report); err != nil {
					return err
				}
			} else {
				printStationReport(e.out, report)
			}

			if csvFile != "" {
				name := csvFile
				if name == autoName {
					name = exporter.StationReportFileName(report)
				}
				return e.save(ctx, name, func(w io.Writer) error {
					return exporter.WriteStationReportCSV(w, report)
				})
			}
			return nil
		},
	}

	c.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of tables")
	c.Flags().StringVar(&csvFile, "csv", "", "Also write a CSV export (--csv=FILE, or --csv for a generated name)")
	c.Flags().Lookup("csv").NoOptDefVal = autoName
	return c
}

func printStationReport(w io.Writer, r domain.StationReport) {
	fmt.Fprintf(w, "Station: %s\n", r.Station)
	if r.Empty {
		fmt.Fprintln(w, "no records for this station")
		return
	}
	fmt.Fprintf(w, "Lines:   %s\n\n", strings.Join(r.Lines, ", "))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tRECORDS\tAVG BOARDINGS\tAVG ALIGHTINGS")
	for _, p := range r.Periods {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.Label, p.Records, average(p.AvgBoardings), average(p.AvgAlightings))
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tBOARDINGS\tALIGHTINGS\tBOARDING GRADE\tALIGHTING GRADE")
	for _, g := range r.Grades {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", g.Line, g.TotalBoardings, g.TotalAlightings, g.BoardingGrade, g.AlightingGrade)
	}
	tw.Flush()
}

func average(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
