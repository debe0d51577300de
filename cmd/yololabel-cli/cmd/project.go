package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"yololabel/internal/application/commands"
)

var (
	createDescription string
	createClasses     []string
	createPath        string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create, list, open, rename and delete projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new project",
	Long: `Create a new annotation project. The project directory gets images/,
labels/, classes.txt and project.json.

Examples:
  yololabel-cli project create Traffic --classes car,person,bike
  yololabel-cli project create Birds --path ~/data/birds -d "garden feeder"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		createCmd := commands.NewCreateProjectCommand(GetManager(), args[0], createDescription, createPath)
		createCmd.Classes = createClasses
		result, err := createCmd.Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the projects in the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		listCmd := commands.NewListProjectsCommand(env.Repo, env.ProjectIndex(), env.Workspace.WorkspacePath())
		projects, err := listCmd.Execute(ctx)
		if err != nil {
			return err
		}

		if len(projects) == 0 {
			fmt.Println("No projects found")
			return nil
		}
		for _, p := range projects {
			fmt.Printf("%-24s %4d images %4d labeled %3d classes  %s\n",
				p.Name, p.ImageCount, p.LabeledCount, p.ClassCount, p.Path)
		}
		return nil
	},
}

var projectOpenCmd = &cobra.Command{
	Use:   "open <project>",
	Short: "Open a project and make it the most recent one",
	Long: `Open a project by path, or by name inside the workspace. Later
commands without --project act on it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		openCmd := commands.NewOpenProjectCommand(GetManager(), args[0])
		result, err := openCmd.Execute(ctx)
		if err != nil {
			return err
		}
		warnStale(result.Stale)
		warnLabelErrors(result.LabelErrors)
		fmt.Println(result.Message)
		return nil
	},
}

var projectInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the project's location and statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := requireProject(context.Background())
		if err != nil {
			return err
		}

		s := p.Stats()
		fmt.Printf("Name:    %s\n", p.Name)
		fmt.Printf("ID:      %s\n", p.ID)
		fmt.Printf("Path:    %s\n", p.Path)
		if p.Description != "" {
			fmt.Printf("About:   %s\n", p.Description)
		}
		fmt.Printf("Images:  %d (%d labeled)\n", s.Images, s.Labeled)
		fmt.Printf("Boxes:   %d\n", s.Annotations)
		fmt.Printf("Classes: %d\n", s.Classes)
		return nil
	},
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename <project> <new-name>",
	Short: "Change a project's display name",
	Long: `Change a project's display name. The directory is not moved.

Examples:
  yololabel-cli project rename Traffic "Traffic 2024"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		renameCmd := commands.NewRenameProjectCommand(GetManager(), args[0], args[1])
		result, err := renameCmd.Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project>",
	Short: "Delete a project",
	Long: `Delete a project directory with all its images and labels.

Warning: This operation cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		deleteCmd := commands.NewDeleteProjectCommand(GetManager(), args[0])
		result, err := deleteCmd.Execute(ctx)
		if err != nil {
			return err
		}
		if env.Index != nil {
			if err := env.Index.Forget(result.Path); err != nil {
				env.Logger.Warn("failed to drop project from index", "path", result.Path, "error", err)
			}
		}
		fmt.Println(result.Message)
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently opened projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		recent := env.Workspace.Config().RecentProjects
		if len(recent) == 0 {
			fmt.Println("No recent projects")
			return nil
		}
		for _, r := range recent {
			fmt.Printf("%s  %-24s %s\n", r.LastOpened.Format("2006-01-02 15:04"), r.Name, r.Path)
		}
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().StringVarP(&createDescription, "description", "d", "", "project description")
	projectCreateCmd.Flags().StringSliceVarP(&createClasses, "classes", "c", nil, "initial class names, comma-separated")
	projectCreateCmd.Flags().StringVar(&createPath, "path", "", "project directory (default <workspace>/<name>)")

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(recentCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectOpenCmd)
	projectCmd.AddCommand(projectInfoCmd)
	projectCmd.AddCommand(projectRenameCmd)
	projectCmd.AddCommand(projectDeleteCmd)
}
