package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-scout/internal/sheet"
	"github.com/sells-group/lead-scout/internal/store"
)

var (
	importProject string
	importPath    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import manual leads from an xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		recs, err := sheet.ReadLeads(importPath)
		if err != nil {
			return eris.Wrap(err, "read workbook")
		}
		tl, err := newTooling(cfg)
		if err != nil {
			return err
		}

		return withStore(ctx, func(st store.Store) error {
			created, updated, err := newRunner(cfg, st, tl).Import(ctx, importProject, recs)
			if err != nil {
				return eris.Wrap(err, "import leads")
			}
			zap.L().Info("import complete",
				zap.String("file", importPath),
				zap.Int("rows", len(recs)),
				zap.Int("created", created),
				zap.Int("updated", updated),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d\n", created, updated)
			return nil
		})
	},
}

func init() {
	importCmd.Flags().StringVar(&importProject, "project", "", "project id (required)")
	importCmd.Flags().StringVar(&importPath, "file", "", "path to xlsx file (required)")
	_ = importCmd.MarkFlagRequired("project")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
