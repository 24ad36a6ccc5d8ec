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

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Manage and run discovery queries",
}

var queryFlags struct {
	project string
	term    string
	targets []string
	sources []string
}

var queryCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Save a discovery query",
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := buildQuery(queryFlags.project, queryFlags.term, queryFlags.targets, queryFlags.sources)
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(st store.Store) error {
			if _, err := st.GetProject(cmd.Context(), q.ProjectID); err != nil {
				return eris.Wrapf(err, "get project %s", q.ProjectID)
			}
			if err := st.CreateQuery(cmd.Context(), q); err != nil {
				return eris.Wrap(err, "create query")
			}
			return printJSON(cmd.OutOrStdout(), q)
		})
	},
}

var queryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(st store.Store) error {
			return listQueries(cmd.Context(), st, cmd.OutOrStdout(), queryFlags.project)
		})
	},
}

var queryRunCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Run a query against the configured providers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("discovery"); err != nil {
			return err
		}
		tl, err := newTooling(cfg)
		if err != nil {
			return err
		}
		return withStore(ctx, func(st store.Store) error {
			res, err := newRunner(cfg, st, tl).Run(ctx, args[0])
			if err != nil {
				return err
			}
			zap.L().Info("query run complete",
				zap.String("query_id", res.QueryID),
				zap.Int("created", res.Created),
				zap.Int("updated", res.Updated),
			)
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var queryImproveCmd = &cobra.Command{
	Use:   "improve <id>",
	Short: "Rewrite a query's search term with AI research",
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
			q, err := newRunner(cfg, st, tl).Improve(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), q.ImprovedQuery)
			return nil
		})
	},
}

var queryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st store.Store) error {
			if err := st.DeleteQuery(cmd.Context(), args[0]); err != nil {
				return eris.Wrapf(err, "delete query %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

// buildQuery validates flag input into a pending query.
func buildQuery(projectID, term string, targets, sources []string) (*model.Query, error) {
	if projectID == "" {
		return nil, eris.New("project id is required")
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, eris.New("search term is required")
	}

	q := &model.Query{ProjectID: projectID, SearchTerm: term}
	if len(targets) > 0 {
		kinds, err := parseTargets(targets)
		if err != nil {
			return nil, err
		}
		q.Targets = kinds
	}
	for _, s := range sources {
		src := model.QuerySource(strings.ToLower(strings.TrimSpace(s)))
		switch src {
		case model.QuerySourceKeyword, model.QuerySourceAI, model.QuerySourceAll:
			q.Sources = append(q.Sources, src)
		default:
			return nil, eris.Errorf("unknown query source %q", s)
		}
	}
	return q, nil
}

func listQueries(ctx context.Context, st store.Store, w io.Writer, projectID string) error {
	queries, err := st.ListQueries(ctx, projectID)
	if err != nil {
		return eris.Wrap(err, "list queries")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROJECT\tSTATUS\tRESULTS\tTERM")
	for _, q := range queries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", q.ID, q.ProjectID, q.Status, q.ResultCount, q.Term())
	}
	return tw.Flush()
}

func init() {
	f := queryCreateCmd.Flags()
	f.StringVar(&queryFlags.project, "project", "", "project id (required)")
	f.StringVar(&queryFlags.term, "term", "", "search term (required)")
	f.StringSliceVar(&queryFlags.targets, "targets", nil, "contact kinds to look for (default emails)")
	f.StringSliceVar(&queryFlags.sources, "sources", nil, "providers: keyword, ai or all (default all)")
	_ = queryCreateCmd.MarkFlagRequired("project")
	_ = queryCreateCmd.MarkFlagRequired("term")

	queryListCmd.Flags().StringVar(&queryFlags.project, "project", "", "only queries of this project")

	queryCmd.AddCommand(queryCreateCmd, queryListCmd, queryRunCmd, queryImproveCmd, queryDeleteCmd)
	rootCmd.AddCommand(queryCmd)
}
