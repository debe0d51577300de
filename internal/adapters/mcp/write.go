package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"yololabel/internal/application"
	"yololabel/internal/application/commands"
)

// RegisterWriteTools adds all mutating project tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, pm *application.ProjectManager) {
	s.AddTool(createProjectTool(), createProjectHandler(pm))
	s.AddTool(openProjectTool(), openProjectHandler(pm))
	s.AddTool(renameProjectTool(), renameProjectHandler(pm))
	s.AddTool(deleteProjectTool(), deleteProjectHandler(pm))
	s.AddTool(addClassTool(), addClassHandler(pm))
	s.AddTool(removeClassTool(), removeClassHandler(pm))
	s.AddTool(renameClassTool(), renameClassHandler(pm))
	s.AddTool(importImagesTool(), importImagesHandler(pm))
	s.AddTool(removeImageTool(), removeImageHandler(pm))
	s.AddTool(annotateTool(), annotateHandler(pm))
	s.AddTool(clearLabelsTool(), clearLabelsHandler(pm))
	s.AddTool(exportDatasetTool(), exportDatasetHandler(pm))
}

// --- create_project ---

func createProjectTool() mcp.Tool {
	return mcp.NewTool("create_project",
		mcp.WithDescription("Create a new annotation project and open it. The project directory gets images/, labels/, classes.txt and project.json."),
		mcp.WithString("name",
			mcp.Description("Project name (letters, digits, space, - and _)"),
			mcp.Required(),
		),
		mcp.WithString("description",
			mcp.Description("Free-form description"),
		),
		mcp.WithString("classes",
			mcp.Description("Comma-separated initial class names (e.g. car,person)"),
		),
		mcp.WithString("path",
			mcp.Description("Project directory. Defaults to <workspace>/<name>."),
		),
	)
}

func createProjectHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewCreateProjectCommand(pm,
			req.GetString("name", ""),
			req.GetString("description", ""),
			req.GetString("path", ""),
		)
		cmd.Classes = splitList(req.GetString("classes", ""))

		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- open_project ---

func openProjectTool() mcp.Tool {
	return mcp.NewTool("open_project",
		mcp.WithDescription("Open a project so that class, image and label tools act on it."),
		mcp.WithString("project",
			mcp.Description("Project path or workspace project name"),
			mcp.Required(),
		),
	)
}

func openProjectHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewOpenProjectCommand(pm, req.GetString("project", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		msg := result.Message
		if n := len(result.Stale); n > 0 {
			msg += fmt.Sprintf("\nWarning: %d annotations reference classes that no longer exist", n)
		}
		for _, le := range result.LabelErrors {
			msg += fmt.Sprintf("\nWarning: unreadable label file, using cached boxes: %v", le)
		}
		return mcp.NewToolResultText(msg), nil
	}
}

// --- rename_project ---

func renameProjectTool() mcp.Tool {
	return mcp.NewTool("rename_project",
		mcp.WithDescription("Change a project's display name. The directory is not moved."),
		mcp.WithString("project",
			mcp.Description("Project path or workspace project name"),
			mcp.Required(),
		),
		mcp.WithString("new_name",
			mcp.Description("New project name"),
			mcp.Required(),
		),
	)
}

func renameProjectHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewRenameProjectCommand(pm, req.GetString("project", ""), req.GetString("new_name", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- delete_project ---

func deleteProjectTool() mcp.Tool {
	return mcp.NewTool("delete_project",
		mcp.WithDescription("Delete a project directory with all its images and labels. This cannot be undone."),
		mcp.WithString("project",
			mcp.Description("Project path or workspace project name"),
			mcp.Required(),
		),
	)
}

func deleteProjectHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewDeleteProjectCommand(pm, req.GetString("project", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- add_class ---

func addClassTool() mcp.Tool {
	return mcp.NewTool("add_class",
		mcp.WithDescription("Append a class to the open project. Adding an existing name returns its id."),
		mcp.WithString("name",
			mcp.Description("Class name"),
			mcp.Required(),
		),
	)
}

func addClassHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewAddClassCommand(pm, req.GetString("name", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- remove_class ---

func removeClassTool() mcp.Tool {
	return mcp.NewTool("remove_class",
		mcp.WithDescription("Remove a class. Its boxes are deleted and higher class ids shift down by one in every label file."),
		mcp.WithString("class",
			mcp.Description("Class name or numeric id"),
			mcp.Required(),
		),
	)
}

func removeClassHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewRemoveClassCommand(pm, req.GetString("class", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- rename_class ---

func renameClassTool() mcp.Tool {
	return mcp.NewTool("rename_class",
		mcp.WithDescription("Rename a class in place. Its id is unchanged."),
		mcp.WithString("class",
			mcp.Description("Class name or numeric id"),
			mcp.Required(),
		),
		mcp.WithString("new_name",
			mcp.Description("New class name"),
			mcp.Required(),
		),
	)
}

func renameClassHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewRenameClassCommand(pm, req.GetString("class", ""), req.GetString("new_name", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- import_images ---

func importImagesTool() mcp.Tool {
	return mcp.NewTool("import_images",
		mcp.WithDescription("Copy image files or whole directories into the open project's images/ directory."),
		mcp.WithString("paths",
			mcp.Description("Comma-separated file or directory paths"),
			mcp.Required(),
		),
	)
}

func importImagesHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewImportImagesCommand(pm, splitList(req.GetString("paths", "")))
		result, err := cmd.Execute(ctx)
		if result == nil {
			return toolError(err)
		}

		var sb strings.Builder
		sb.WriteString(result.Message)
		for _, r := range result.Results {
			if r.Err != nil {
				fmt.Fprintf(&sb, "\n  %s: %v", r.Source, r.Err)
			}
		}
		if err != nil {
			fmt.Fprintf(&sb, "\n%v", err)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- remove_image ---

func removeImageTool() mcp.Tool {
	return mcp.NewTool("remove_image",
		mcp.WithDescription("Remove an image and its label file from the open project."),
		mcp.WithString("image",
			mcp.Description("Image filename inside the project"),
			mcp.Required(),
		),
	)
}

func removeImageHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewRemoveImageCommand(pm, req.GetString("image", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- annotate ---

func annotateTool() mcp.Tool {
	return mcp.NewTool("annotate",
		mcp.WithDescription("Add a bounding box to an image, given as two opposite corners in image pixels. The box is clamped to the image and saved as a YOLO label line."),
		mcp.WithString("image",
			mcp.Description("Image filename inside the project"),
			mcp.Required(),
		),
		mcp.WithString("class",
			mcp.Description("Class name or numeric id. Omit to use the selected class."),
		),
		mcp.WithNumber("x1", mcp.Description("First corner x in pixels"), mcp.Required()),
		mcp.WithNumber("y1", mcp.Description("First corner y in pixels"), mcp.Required()),
		mcp.WithNumber("x2", mcp.Description("Opposite corner x in pixels"), mcp.Required()),
		mcp.WithNumber("y2", mcp.Description("Opposite corner y in pixels"), mcp.Required()),
	)
}

func annotateHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewAnnotateCommand(pm,
			req.GetString("image", ""),
			req.GetString("class", ""),
			req.GetFloat("x1", 0), req.GetFloat("y1", 0),
			req.GetFloat("x2", 0), req.GetFloat("y2", 0),
		)
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		return mcp.NewToolResultText(result.Message + "\n" + result.Line), nil
	}
}

// --- clear_labels ---

func clearLabelsTool() mcp.Tool {
	return mcp.NewTool("clear_labels",
		mcp.WithDescription("Remove every box from an image. The label file is kept empty."),
		mcp.WithString("image",
			mcp.Description("Image filename inside the project"),
			mcp.Required(),
		),
	)
}

func clearLabelsHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		msg, err := commands.NewClearLabelsCommand(pm, req.GetString("image", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		return mcp.NewToolResultText(msg), nil
	}
}

// --- export_dataset ---

func exportDatasetTool() mcp.Tool {
	return mcp.NewTool("export_dataset",
		mcp.WithDescription("Export labeled images as a train/val dataset with a data.yaml descriptor."),
		mcp.WithString("dir",
			mcp.Description("Output directory. Defaults to <project>/export."),
		),
		mcp.WithNumber("val_ratio",
			mcp.Description("Share of images held out for validation, between 0 and 1 (default 0.2)"),
		),
	)
}

func exportDatasetHandler(pm *application.ProjectManager) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewExportDatasetCommand(pm,
			req.GetString("dir", ""),
			req.GetFloat("val_ratio", application.DefaultValRatio),
		)
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		return mcp.NewToolResultText(result.Message + "\n" + result.Summary.DescriptorPath), nil
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
