package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"yololabel/internal/application"
	"yololabel/internal/application/commands"
	"yololabel/internal/domain"
	"yololabel/internal/ports"
)

// RegisterReadTools adds all read-only project tools to the MCP server.
// index may be nil, in which case listings scan the workspace.
func RegisterReadTools(s *server.MCPServer, pm *application.ProjectManager, repo ports.ProjectRepository, index ports.ProjectIndex) {
	s.AddTool(listProjectsTool(), listProjectsHandler(pm, repo, index))
	s.AddTool(projectInfoTool(), projectInfoHandler(pm, repo))
	s.AddTool(listClassesTool(), listClassesHandler(pm, repo))
	s.AddTool(listImagesTool(), listImagesHandler(pm, repo))
	s.AddTool(readLabelsTool(), readLabelsHandler(pm, repo))
}

// --- list_projects ---

func listProjectsTool() mcp.Tool {
	return mcp.NewTool("list_projects",
		mcp.WithDescription("List the annotation projects in the workspace with image, label and class counts."),
	)
}

func listProjectsHandler(pm *application.ProjectManager, repo ports.ProjectRepository, index ports.ProjectIndex) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		root := ""
		if ws := pm.Workspace(); ws != nil {
			root = ws.WorkspacePath()
		}
		if index != nil {
			if _, err := index.SyncIncremental(); err != nil {
				return toolError(fmt.Errorf("syncing project index: %w", err))
			}
		}

		projects, err := commands.NewListProjectsCommand(repo, index, root).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(projects, formatIndexed)
	}
}

// --- project_info ---

func projectInfoTool() mcp.Tool {
	return mcp.NewTool("project_info",
		mcp.WithDescription("Show a project's identity, location and statistics. Defaults to the open project."),
		mcp.WithString("project",
			mcp.Description("Project path or workspace project name. Omit to use the open project."),
		),
	)
}

func projectInfoHandler(pm *application.ProjectManager, repo ports.ProjectRepository) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := projectFor(pm, repo, req.GetString("project", ""))
		if err != nil {
			return toolError(err)
		}

		s := p.Stats()
		var sb strings.Builder
		fmt.Fprintf(&sb, "Name:        %s\n", p.Name)
		fmt.Fprintf(&sb, "ID:          %s\n", p.ID)
		fmt.Fprintf(&sb, "Path:        %s\n", p.Path)
		if p.Description != "" {
			fmt.Fprintf(&sb, "Description: %s\n", p.Description)
		}
		if !p.Created.IsZero() {
			fmt.Fprintf(&sb, "Created:     %s\n", p.Created.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(&sb, "Images:      %d (%d labeled)\n", s.Images, s.Labeled)
		fmt.Fprintf(&sb, "Boxes:       %d\n", s.Annotations)
		fmt.Fprintf(&sb, "Classes:     %d\n", s.Classes)
		if stale := p.StaleAnnotations(); len(stale) > 0 {
			fmt.Fprintf(&sb, "Stale:       %d annotations reference removed classes\n", len(stale))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- list_classes ---

func listClassesTool() mcp.Tool {
	return mcp.NewTool("list_classes",
		mcp.WithDescription("List a project's classes with their YOLO ids. The selected class is marked with *."),
		mcp.WithString("project",
			mcp.Description("Project path or workspace project name. Omit to use the open project."),
		),
	)
}

func listClassesHandler(pm *application.ProjectManager, repo ports.ProjectRepository) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := projectFor(pm, repo, req.GetString("project", ""))
		if err != nil {
			return toolError(err)
		}

		names := p.Classes.Names()
		selected := p.Classes.Selected()
		ids := make([]int, len(names))
		for i := range ids {
			ids[i] = i
		}
		return formatEntities(ids, func(id int) string {
			mark := " "
			if id == selected {
				mark = "*"
			}
			return fmt.Sprintf("%s %d  %s", mark, id, names[id])
		})
	}
}

// --- list_images ---

func listImagesTool() mcp.Tool {
	return mcp.NewTool("list_images",
		mcp.WithDescription("List a project's images in order with their size and box count."),
		mcp.WithString("project",
			mcp.Description("Project path or workspace project name. Omit to use the open project."),
		),
		mcp.WithString("filter",
			mcp.Description("Only list images that are 'labeled' or 'unlabeled'. Omit to list all."),
			mcp.Enum("labeled", "unlabeled"),
		),
	)
}

func listImagesHandler(pm *application.ProjectManager, repo ports.ProjectRepository) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := projectFor(pm, repo, req.GetString("project", ""))
		if err != nil {
			return toolError(err)
		}

		filter := req.GetString("filter", "")
		var images []*domain.ImageRecord
		for _, img := range p.Images {
			switch {
			case filter == "labeled" && !img.IsLabeled():
			case filter == "unlabeled" && img.IsLabeled():
			default:
				images = append(images, img)
			}
		}
		return formatEntities(images, formatImage)
	}
}

// --- read_labels ---

func readLabelsTool() mcp.Tool {
	return mcp.NewTool("read_labels",
		mcp.WithDescription("Read an image's annotations as YOLO label lines (class x_center y_center width height), each followed by the class name and pixel corners."),
		mcp.WithString("image",
			mcp.Description("Image filename inside the project (e.g. img_001.jpg)"),
			mcp.Required(),
		),
		mcp.WithString("project",
			mcp.Description("Project path or workspace project name. Omit to use the open project."),
		),
	)
}

func readLabelsHandler(pm *application.ProjectManager, repo ports.ProjectRepository) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.GetString("image", "")
		if name == "" {
			return toolError(fmt.Errorf("image is required"))
		}
		p, err := projectFor(pm, repo, req.GetString("project", ""))
		if err != nil {
			return toolError(err)
		}

		img, _ := p.FindImage(name)
		if img == nil {
			return toolError(fmt.Errorf("image %s: %w", name, domain.ErrNotFound))
		}
		if len(img.Annotations) == 0 {
			return mcp.NewToolResultText("No annotations."), nil
		}

		var sb strings.Builder
		for _, a := range img.Annotations {
			sb.WriteString(a.FormatLine())
			name := a.ClassName
			if n, ok := p.Classes.Name(a.ClassID); ok {
				name = n
			}
			fmt.Fprintf(&sb, "  # %s", name)
			if img.HasDimensions() {
				x1, y1, x2, y2 := domain.ToPixelCorners(a.Box, img.Width, img.Height)
				fmt.Fprintf(&sb, " [%d,%d %d,%d]", x1, y1, x2, y2)
			}
			sb.WriteByte('\n')
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

// projectFor returns the open project when ref is empty or names it, and
// otherwise loads ref from disk without making it current
func projectFor(pm *application.ProjectManager, repo ports.ProjectRepository, ref string) (*domain.Project, error) {
	current := pm.Current()
	if ref == "" {
		if current == nil {
			return nil, application.ErrNoProject
		}
		return current, nil
	}

	path := commands.ResolveProjectPath(pm, ref)
	if current != nil && (current.Path == path || current.Name == ref) {
		return current, nil
	}
	return repo.Load(path)
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatIndexed(p domain.IndexedProject) string {
	return fmt.Sprintf("%s  %s  (%d images, %d labeled, %d classes)", p.Name, p.Path, p.ImageCount, p.LabeledCount, p.ClassCount)
}

func formatImage(img *domain.ImageRecord) string {
	size := "?x?"
	if img.HasDimensions() {
		size = fmt.Sprintf("%dx%d", img.Width, img.Height)
	}
	return fmt.Sprintf("%s  %s  %d boxes", img.Filename, size, len(img.Annotations))
}
