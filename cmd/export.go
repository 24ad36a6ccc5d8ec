package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/sheet"
	"github.com/sells-group/lead-scout/internal/store"
)

var exportFlags struct {
	project string
	quality string
	out     string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export leads to an xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := os.Create(exportFlags.out)
		if err != nil {
			return eris.Wrap(err, "create output")
		}
		defer f.Close() //nolint:errcheck

		filter := store.LeadFilter{
			ProjectID: exportFlags.project,
			Quality:   model.Quality(exportFlags.quality),
			Limit:     100000,
		}
		return withStore(cmd.Context(), func(st store.Store) error {
			n, err := exportLeads(cmd.Context(), st, f, filter)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d leads to %s\n", n, exportFlags.out)
			return nil
		})
	},
}

func exportLeads(ctx context.Context, st store.Store, w io.Writer, filter store.LeadFilter) (int, error) {
	leads, err := st.ListLeads(ctx, filter)
	if err != nil {
		return 0, eris.Wrap(err, "list leads")
	}
	if err := sheet.WriteLeads(w, leads); err != nil {
		return 0, eris.Wrap(err, "write workbook")
	}
	return len(leads), nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.project, "project", "", "only leads of this project")
	exportCmd.Flags().StringVar(&exportFlags.quality, "quality", "", "only leads of this quality")
	exportCmd.Flags().StringVar(&exportFlags.out, "out", "leads.xlsx", "output path")
	rootCmd.AddCommand(exportCmd)
}
