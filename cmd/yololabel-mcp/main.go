package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "yololabel/internal/adapters/mcp"
	"yololabel/internal/application/commands"
	"yololabel/internal/bootstrap"
	"yololabel/internal/config"
	"yololabel/internal/logging"
)

func main() {
	workspaceFlag := flag.String("workspace", "", "workspace root (remembered for later runs)")
	projectFlag := flag.String("project", "", "project to open on start")
	logFormat := flag.String("log-format", "text", "log format on stderr: text or json")
	flag.Parse()

	// stdout carries the protocol
	logger := logging.NewWithWriter(os.Stderr, config.LogLevel(), *logFormat)

	env, err := bootstrap.Open(bootstrap.Options{WorkspacePath: *workspaceFlag, Logger: logger})
	if err != nil {
		log.Fatalf("yololabel-mcp: %v", err)
	}
	defer func() {
		if err := env.Close(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	if *projectFlag != "" {
		if _, err := commands.NewOpenProjectCommand(env.Manager, *projectFlag).Execute(context.Background()); err != nil {
			logger.Warn("failed to open project", "project", *projectFlag, "error", err)
		}
	}

	mcpServer := server.NewMCPServer(
		"yololabel-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, env.Manager, env.Repo, env.ProjectIndex())
	mcpadapter.RegisterWriteTools(mcpServer, env.Manager)

	logger.Info("serving", "workspace", env.Workspace.WorkspacePath())
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("stdio server stopped", "error", err)
	}
}
