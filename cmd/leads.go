package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-scout/internal/discovery"
	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/store"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and maintain leads",
}

var leadsFlags struct {
	project string
	query   string
	status  string
	quality string
	limit   int
	offset  int
	json    bool
	notes   string
}

func leadFilter() (store.LeadFilter, error) {
	f := store.LeadFilter{
		ProjectID: leadsFlags.project,
		QueryID:   leadsFlags.query,
		Status:    model.LeadStatus(leadsFlags.status),
		Quality:   model.Quality(leadsFlags.quality),
		Limit:     leadsFlags.limit,
		Offset:    leadsFlags.offset,
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, eris.Errorf("unknown lead status %q", leadsFlags.status)
	}
	if f.Quality != "" && f.Quality.Rank() == 0 {
		return f, eris.Errorf("unknown quality %q", leadsFlags.quality)
	}
	return f, nil
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, err := leadFilter()
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(st store.Store) error {
			leads, err := st.ListLeads(cmd.Context(), filter)
			if err != nil {
				return eris.Wrap(err, "list leads")
			}
			if leadsFlags.json {
				return printJSON(cmd.OutOrStdout(), leads)
			}
			return writeLeadTable(cmd.OutOrStdout(), leads)
		})
	},
}

var leadsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st store.Store) error {
			l, err := st.GetLead(cmd.Context(), args[0])
			if err != nil {
				return eris.Wrapf(err, "get lead %s", args[0])
			}
			return printJSON(cmd.OutOrStdout(), l)
		})
	},
}

var leadsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete leads",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st store.Store) error {
			for _, id := range args {
				if err := st.DeleteLead(cmd.Context(), id); err != nil {
					return eris.Wrapf(err, "delete lead %s", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		})
	},
}

var leadsStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Set a lead's outreach status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st store.Store) error {
			l, err := setLeadStatus(cmd.Context(), st, args[0], model.LeadStatus(args[1]), leadsFlags.notes)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), l)
		})
	},
}

var leadsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Re-apply format validation to stored leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, err := leadFilter()
		if err != nil {
			return err
		}
		tl, err := newTooling(cfg)
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(st store.Store) error {
			changed, removed, err := newRunner(cfg, st, tl).CleanAll(cmd.Context(), filter)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleaned %d leads, removed %d contacts\n", changed, removed)
			return nil
		})
	},
}

var leadsEnrichCmd = &cobra.Command{
	Use:   "enrich <id>...",
	Short: "Research leads in depth and merge what is found",
	Args:  cobra.MinimumNArgs(1),
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
			return enrichLeads(ctx, newRunner(cfg, st, tl), cmd.OutOrStdout(), args)
		})
	},
}

// enrichLeads enriches each lead in turn, one at a time so merges never
// race on the same record.
func enrichLeads(ctx context.Context, r *discovery.Runner, w io.Writer, ids []string) error {
	var failed int
	for _, id := range ids {
		l, err := r.Enrich(ctx, id)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s\tfailed: %v\n", id, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d contacts\n", l.ID, l.Quality, l.Contacts.Total())
	}
	if failed > 0 {
		return eris.Errorf("%d of %d leads failed to enrich", failed, len(ids))
	}
	return nil
}

func setLeadStatus(ctx context.Context, st store.Store, id string, status model.LeadStatus, notes string) (*model.Lead, error) {
	if !status.Valid() {
		return nil, eris.Errorf("unknown lead status %q", status)
	}
	l, err := st.GetLead(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "get lead %s", id)
	}
	l.Status = status
	if notes != "" {
		l.Notes = notes
	}
	if err := st.UpdateLead(ctx, l); err != nil {
		return nil, eris.Wrapf(err, "update lead %s", id)
	}
	return l, nil
}

func writeLeadTable(w io.Writer, leads []model.Lead) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUALITY\tSTATUS\tCONTACTS\tURL")
	for _, l := range leads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", l.ID, l.Quality, l.Status, l.Contacts.Total(), l.URL)
	}
	return tw.Flush()
}

func init() {
	for _, c := range []*cobra.Command{leadsListCmd, leadsCleanCmd} {
		c.Flags().StringVar(&leadsFlags.project, "project", "", "only leads of this project")
		c.Flags().StringVar(&leadsFlags.query, "query", "", "only leads found by this query")
		c.Flags().StringVar(&leadsFlags.status, "status", "", "only leads with this status")
		c.Flags().StringVar(&leadsFlags.quality, "quality", "", "only leads of this quality")
		c.Flags().IntVar(&leadsFlags.limit, "limit", 500, "max leads")
		c.Flags().IntVar(&leadsFlags.offset, "offset", 0, "leads to skip")
	}
	leadsListCmd.Flags().BoolVar(&leadsFlags.json, "json", false, "print JSON instead of a table")
	leadsStatusCmd.Flags().StringVar(&leadsFlags.notes, "notes", "", "replace the lead's notes")

	leadsCmd.AddCommand(leadsListCmd, leadsGetCmd, leadsDeleteCmd, leadsStatusCmd, leadsCleanCmd, leadsEnrichCmd)
	rootCmd.AddCommand(leadsCmd)
}
