package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

func optionsCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:   "options",
		Short: "List the dates, lines and stations of the analysed month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := flags.setup(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			opts, err := e.service.Options(ctx)
			if err != nil {
				return err
			}
			info, err := e.service.DatasetInfo(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(e.out, map[string]any{
					"dataset": info,
					"options": opts,
				})
			}
			printOptions(e.out, info, opts)
			return nil
		},
	}

	c.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return c
}

func printOptions(w io.Writer, info domain.DatasetInfo, opts domain.SelectionOptions) {
	fmt.Fprintf(w, "Source:   %s (%s)\n", info.Source, info.Encoding)
	fmt.Fprintf(w, "Month:    %s, %d of %d rows\n", opts.Scope, info.RowsInScope, info.RowsRead)
	if opts.Empty {
		fmt.Fprintf(w, "\nno data for the month %s\n", opts.Scope)
		return
	}

	dates := make([]string, len(opts.Dates))
	for i, d := range opts.Dates {
		dates[i] = d.Format(domain.DateLayout)
	}
	fmt.Fprintf(w, "Dates:    %s\n", strings.Join(dates, ", "))
	if opts.DefaultDate != nil {
		fmt.Fprintf(w, "Default:  %s\n", opts.DefaultDate.Format(domain.DateLayout))
	}
	fmt.Fprintf(w, "Lines:    %s\n", strings.Join(opts.Lines, ", "))
	fmt.Fprintf(w, "Stations: %d\n", len(opts.Stations))
}
