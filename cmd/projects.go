package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/feasibility-cli/internal/model"
	"github.com/sells-group/feasibility-cli/internal/store"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage saved feasibility projects",
	Long:  "Commands for creating, listing, viewing, and deleting saved projects.",
}

// -- projects create --

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		p, err := st.CreateProject(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "projects create")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

// -- projects list --

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		limit, _ := cmd.Flags().GetInt("limit")
		filter := store.ProjectFilter{NameLike: name, Limit: limit}
		if cmd.Flags().Changed("completed") {
			completed, _ := cmd.Flags().GetBool("completed")
			filter.Completed = &completed
		}

		projects, err := st.ListProjects(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "projects list")
		}

		if len(projects) == 0 {
			fmt.Fprintln(os.Stderr, "No projects found.")
			return nil
		}

		formatProjectsList(os.Stdout, projects)
		return nil
	},
}

// -- projects show --

var projectsShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show full details of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		p, err := st.GetProject(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "projects show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

// -- projects delete --

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteProject(ctx, args[0]); err != nil {
			return eris.Wrap(err, "projects delete")
		}

		fmt.Fprintf(os.Stdout, "Deleted project %s\n", args[0])
		return nil
	},
}

func init() {
	projectsListCmd.Flags().Bool("completed", false, "filter by completion status")
	projectsListCmd.Flags().String("name", "", "filter by name substring")
	projectsListCmd.Flags().Int("limit", 50, "max number of projects to display")

	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}

// formatProjectsList writes a tabular list of projects to w.
func formatProjectsList(out io.Writer, projects []model.Project) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCOMPLETE\tFEASIBLE\tNPV\tCREATED")

	for _, p := range projects {
		feasible := "-"
		npv := "-"
		if p.Result != nil {
			feasible = fmt.Sprintf("%t", p.Result.IsFeasible)
			npv = fmt.Sprintf("%.2f", p.Result.NPV)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%s\n",
			p.ID, p.Name, p.IsCompleted, feasible, npv,
			p.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
