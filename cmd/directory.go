package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/store"
)

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Search for people, organizations and other entities",
}

var directoryFlags struct {
	project    string
	term       string
	entityType string
	search     string
	json       bool
}

var directorySearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find entities related to a term and save them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		et, err := parseEntityType(directoryFlags.entityType)
		if err != nil {
			return err
		}
		term := strings.TrimSpace(directoryFlags.term)
		if term == "" {
			return eris.New("search term is required")
		}
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}
		tl, err := newTooling(cfg)
		if err != nil {
			return err
		}
		return withStore(ctx, func(st store.Store) error {
			es, entities, err := newRunner(cfg, st, tl).SearchDirectory(ctx, directoryFlags.project, term, et)
			if err != nil {
				return err
			}
			zap.L().Info("directory search complete",
				zap.String("search_id", es.ID),
				zap.Int("entities", len(entities)),
			)
			return writeEntityTable(cmd.OutOrStdout(), entities)
		})
	},
}

var directoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved entities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		et, err := parseEntityType(directoryFlags.entityType)
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(st store.Store) error {
			entities, err := st.ListEntities(cmd.Context(), store.EntityFilter{
				ProjectID: directoryFlags.project,
				SearchID:  directoryFlags.search,
				Type:      et,
			})
			if err != nil {
				return eris.Wrap(err, "list entities")
			}
			if directoryFlags.json {
				return printJSON(cmd.OutOrStdout(), entities)
			}
			return writeEntityTable(cmd.OutOrStdout(), entities)
		})
	},
}

var directoryGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one entity as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st store.Store) error {
			e, err := st.GetEntity(cmd.Context(), args[0])
			if err != nil {
				return eris.Wrapf(err, "get entity %s", args[0])
			}
			return printJSON(cmd.OutOrStdout(), e)
		})
	},
}

var directoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st store.Store) error {
			if err := st.DeleteEntity(cmd.Context(), args[0]); err != nil {
				return eris.Wrapf(err, "delete entity %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

var directoryEnrichCmd = &cobra.Command{
	Use:   "enrich <id>",
	Short: "Look up contact details for an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}
		tl, err := newTooling(cfg)
		if err != nil {
			return err
		}
		return withStore(ctx, func(st store.Store) error {
			e, err := newRunner(cfg, st, tl).EnrichEntity(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), e)
		})
	},
}

// parseEntityType maps a flag or query value to an entity type. Empty input
// means every type.
func parseEntityType(s string) (model.EntityType, error) {
	t := model.EntityType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" || t == model.EntityAll {
		return model.EntityAll, nil
	}
	if !t.Valid() {
		return "", eris.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

func writeEntityTable(w io.Writer, entities []model.Entity) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCONTACTS\tNAME")
	for _, e := range entities {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.ID, e.Type, e.Contacts.Total(), e.Name)
	}
	return tw.Flush()
}

// listEntities is shared by the CLI and the HTTP API.
func listEntities(ctx context.Context, st store.Store, f store.EntityFilter) ([]model.Entity, error) {
	entities, err := st.ListEntities(ctx, f)
	if err != nil {
		return nil, eris.Wrap(err, "list entities")
	}
	if entities == nil {
		entities = []model.Entity{}
	}
	return entities, nil
}

func init() {
	sf := directorySearchCmd.Flags()
	sf.StringVar(&directoryFlags.project, "project", "", "project id (required)")
	sf.StringVar(&directoryFlags.term, "term", "", "what to search for (required)")
	sf.StringVar(&directoryFlags.entityType, "type", "all", "person, organization, book, product, event, place or all")
	_ = directorySearchCmd.MarkFlagRequired("project")
	_ = directorySearchCmd.MarkFlagRequired("term")

	lf := directoryListCmd.Flags()
	lf.StringVar(&directoryFlags.project, "project", "", "only entities of this project")
	lf.StringVar(&directoryFlags.search, "search", "", "only entities found by this search")
	lf.StringVar(&directoryFlags.entityType, "type", "all", "only entities of this type")
	lf.BoolVar(&directoryFlags.json, "json", false, "print JSON instead of a table")

	directoryCmd.AddCommand(directorySearchCmd, directoryListCmd, directoryGetCmd, directoryDeleteCmd, directoryEnrichCmd)
	rootCmd.AddCommand(directoryCmd)
}
