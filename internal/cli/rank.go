package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/szooyang/ai-project01/internal/config"
	"github.com/szooyang/ai-project01/internal/dataprocessing"
	"github.com/szooyang/ai-project01/internal/exporter"
	"github.com/szooyang/ai-project01/internal/services"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

func rankCmd(flags *globalFlags) *cobra.Command {
	var (
		date        string
		line        string
		limit       int
		top         bool
		asJSON      bool
		showPreview bool
		csvFile     string
		pngFile     string
	)

	c := &cobra.Command{
		Use:   "rank",
		Short: "Rank the stations of a line on one day by total ridership",
		Example: `  ridership rank --line 2호선
  ridership rank --date 20251001 --line 2호선 --top --png
  ridership rank --date 20251001 --line 2호선 --csv=ranking.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if top && limit == 0 {
				limit = config.DefaultTopN
			}
			if limit < 0 || limit > config.MaxRankLimit {
				return fmt.Errorf("--limit must be between 0 and %d", config.MaxRankLimit)
			}

			e, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			q := services.RankingQuery{Line: line, Limit: limit}
			if date != "" {
				if q.Date, err = dataprocessing.ParseDate(date); err != nil {
					return err
				}
			} else {
				opts, err := e.service.Options(ctx)
				if err != nil {
					return err
				}
				if opts.DefaultDate == nil {
					return fmt.Errorf("no data for the month %s", opts.Scope)
				}
				q.Date = *opts.DefaultDate
			}

			ranking, err := e.service.Ranking(ctx, nil, q)
			if err != nil {
				return err
			}

			if asJSON {
				if !showPreview {
					ranking.Preview = nil
				}
				if err := writeJSON(e.out, ranking); err != nil {
					return err
				}
			} else {
				printRanking(e.out, ranking, showPreview)
			}

			if csvFile != "" {
				name := csvFile
				if name == autoName {
					name = exporter.RankingFileName(ranking, "csv")
				}
				if err := e.save(ctx, name, func(w io.Writer) error {
					return exporter.WriteRankingCSV(w, ranking)
				}); err != nil {
					return err
				}
			}
			if pngFile != "" {
				name := pngFile
				if name == autoName {
					name = exporter.RankingFileName(ranking, "png")
				}
				opts := exporter.ChartOptions{WidthPx: config.ChartWidthPx, HeightPx: config.ChartHeightPx}
				if err := e.save(ctx, name, func(w io.Writer) error {
					return exporter.RenderRankingChart(w, ranking, opts)
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	f := c.Flags()
	f.StringVar(&date, "date", "", "Day as YYYYMMDD (default: first day with data)")
	f.StringVarP(&line, "line", "l", "", "Line name, e.g. 2호선 (required)")
	f.IntVarP(&limit, "limit", "n", 0, "Keep only the first N stations (0 keeps all)")
	f.BoolVar(&top, "top", false, fmt.Sprintf("Shorthand for --limit %d", config.DefaultTopN))
	f.BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	f.BoolVar(&showPreview, "preview", false, "Include the first filtered rows")
	f.StringVar(&csvFile, "csv", "", "Also write a CSV export (--csv=FILE, or --csv for a generated name)")
	f.StringVar(&pngFile, "png", "", "Also write a PNG bar chart (--png=FILE, or --png for a generated name)")
	f.Lookup("csv").NoOptDefVal = autoName
	f.Lookup("png").NoOptDefVal = autoName
	_ = c.MarkFlagRequired("line")
	return c
}

func printRanking(w io.Writer, r domain.LineRanking, showPreview bool) {
	fmt.Fprintf(w, "Line: %s  Date: %s  Rows: %d\n\n", r.Line, r.Date.Format(domain.DateLayout), r.RowCount)
	if r.Empty {
		fmt.Fprintln(w, "no records for this selection")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSTATION\tTOTAL\tCOLOR")
	for i, bar := range r.Bars {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, bar.Station, bar.Total, bar.Color)
	}
	tw.Flush()

	if !showPreview || len(r.Preview) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFirst %d rows:\n", len(r.Preview))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tLINE\tSTATION\tBOARDINGS\tALIGHTINGS")
	for _, rec := range r.Preview {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			rec.Date.Format(domain.DateLayout), rec.Line, rec.Station, rec.Boardings, rec.Alightings)
	}
	tw.Flush()
}
