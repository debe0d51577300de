package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yololabel/internal/application"
	"yololabel/internal/application/commands"
	"yololabel/internal/bootstrap"
	"yololabel/internal/config"
	"yololabel/internal/logging"
)

var (
	workspacePath string
	projectRef    string
	logLevel      string
	logFormat     string
	env           *bootstrap.Env
)

var rootCmd = &cobra.Command{
	Use:   "yololabel-cli",
	Short: "CLI for managing YOLO annotation projects",
	Long: `yololabel-cli is a command-line interface for YOLO bounding-box
annotation projects.

It creates projects, manages their classes and images, adds or clears
boxes, and exports train/val datasets for training.

Commands that act on a project use --project, or the most recently
opened project when it is omitted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		env, err = bootstrap.Open(bootstrap.Options{
			WorkspacePath: workspacePath,
			Logger:        logging.New(logLevel, logFormat),
		})
		return err
	},
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	if env != nil {
		if cerr := env.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspacePath, "workspace", "w", "", "workspace root (default from "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVarP(&projectRef, "project", "p", "", "project path or workspace project name")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.LogLevel(), "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

// GetManager returns the initialized project manager
func GetManager() *application.ProjectManager {
	return env.Manager
}

// requireProject loads the project named by --project, or the most
// recent one
func requireProject(ctx context.Context) (*application.Project, error) {
	if projectRef != "" {
		result, err := commands.NewOpenProjectCommand(env.Manager, projectRef).Execute(ctx)
		if err != nil {
			return nil, err
		}
		warnStale(result.Stale)
		warnLabelErrors(result.LabelErrors)
		return result.Project, nil
	}
	if !env.OpenRecent() {
		return nil, fmt.Errorf("no project given and no recent project: use --project: %w", application.ErrNoProject)
	}
	p := env.Manager.Current()
	warnStale(p.StaleAnnotations())
	warnLabelErrors(p.LabelErrors)
	return p, nil
}

func warnStale(stale []application.StaleRef) {
	if len(stale) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d annotations reference classes that no longer exist\n", len(stale))
	}
}

func warnLabelErrors(errs []application.LabelError) {
	for _, le := range errs {
		fmt.Fprintf(os.Stderr, "warning: unreadable label file, using cached boxes: %v\n", le)
	}
}
