package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-scout/internal/model"
	"github.com/sells-group/lead-scout/internal/store"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectFlags struct {
	name        string
	description string
	context     string
	keywords    []string
	exclude     []string
	industry    string
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := &model.Project{
			Name:            projectFlags.name,
			Description:     projectFlags.description,
			Context:         projectFlags.context,
			TargetKeywords:  projectFlags.keywords,
			ExcludeKeywords: projectFlags.exclude,
			Industry:        projectFlags.industry,
		}
		return withStore(cmd.Context(), func(st store.Store) error {
			if err := createProject(cmd.Context(), st, p); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		})
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(st store.Store) error {
			return listProjects(cmd.Context(), st, cmd.OutOrStdout())
		})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project with its queries and leads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st store.Store) error {
			if err := st.DeleteProject(cmd.Context(), args[0]); err != nil {
				return eris.Wrapf(err, "delete project %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

func createProject(ctx context.Context, st store.Store, p *model.Project) error {
	if p.Name == "" {
		return eris.New("project name is required")
	}
	if err := st.CreateProject(ctx, p); err != nil {
		return eris.Wrap(err, "create project")
	}
	return nil
}

func listProjects(ctx context.Context, st store.Store, w io.Writer) error {
	projects, err := st.ListProjects(ctx)
	if err != nil {
		return eris.Wrap(err, "list projects")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tINDUSTRY\tCREATED")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Industry, p.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func init() {
	f := projectCreateCmd.Flags()
	f.StringVar(&projectFlags.name, "name", "", "project name (required)")
	f.StringVar(&projectFlags.description, "description", "", "project description")
	f.StringVar(&projectFlags.context, "context", "", "context used to steer AI research")
	f.StringSliceVar(&projectFlags.keywords, "keywords", nil, "target keywords that raise relevance")
	f.StringSliceVar(&projectFlags.exclude, "exclude", nil, "keywords that exclude a search result")
	f.StringVar(&projectFlags.industry, "industry", "", "target industry")
	_ = projectCreateCmd.MarkFlagRequired("name")

	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}
