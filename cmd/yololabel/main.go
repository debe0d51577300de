package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"yololabel/internal/adapters/editor"
	"yololabel/internal/adapters/tui"
	"yololabel/internal/adapters/viewer"
	"yololabel/internal/application/commands"
	"yololabel/internal/bootstrap"
	"yololabel/internal/config"
	"yololabel/internal/logging"
)

func main() {
	workspaceFlag := flag.String("workspace", "", "workspace root (remembered for later runs)")
	projectFlag := flag.String("project", "", "project to open on start; defaults to the most recent one")
	logFile := flag.String("log", "", "write logs to this file instead of discarding them")
	flag.Parse()

	// The terminal belongs to the TUI, so logs only go to a file on request
	logger := logging.Discard()
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = logging.NewWithWriter(f, config.LogLevel(), "text")
	}

	env, err := bootstrap.Open(bootstrap.Options{WorkspacePath: *workspaceFlag, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *projectFlag != "" {
		if _, err := commands.NewOpenProjectCommand(env.Manager, *projectFlag).Execute(context.Background()); err != nil {
			env.Close()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		env.OpenRecent()
	}

	app := tui.NewApp(tui.Deps{
		Manager: env.Manager,
		Repo:    env.Repo,
		Index:   env.ProjectIndex(),
		Editor:  editor.NewOpener(""),
		Viewer:  viewer.NewOpener(),
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := p.Run()

	app.Close()
	if err := env.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
