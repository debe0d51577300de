package commands

import (
	"context"
	"fmt"

	"yololabel/internal/application"
	"yololabel/internal/domain"
	"yololabel/internal/ports"
)

// ExportDatasetResult contains the result of an export
type ExportDatasetResult struct {
	Summary *domain.ExportSummary
	Message string
}

// ExportDatasetCommand writes a train/val dataset for the current project
type ExportDatasetCommand struct {
	pm       *application.ProjectManager
	Dir      string
	ValRatio float64
}

// NewExportDatasetCommand creates a new ExportDatasetCommand
func NewExportDatasetCommand(pm *application.ProjectManager, dir string, valRatio float64) *ExportDatasetCommand {
	return &ExportDatasetCommand{pm: pm, Dir: dir, ValRatio: valRatio}
}

// Validate checks if the export operation is valid
func (c *ExportDatasetCommand) Validate() error {
	return application.ValidateValRatio(c.ValRatio)
}

// Execute runs the export command
func (c *ExportDatasetCommand) Execute(ctx context.Context) (*ExportDatasetResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	summary, err := c.pm.ExportDataset(ctx, c.Dir, c.ValRatio)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Exported %d train / %d val images to %s", summary.Train, summary.Val, summary.Dir)
	if len(summary.Skipped) > 0 {
		msg += fmt.Sprintf(" (%d skipped)", len(summary.Skipped))
	}
	return &ExportDatasetResult{Summary: summary, Message: msg}, nil
}

// TrainResult contains the result of a training run
type TrainResult struct {
	Export  *domain.ExportSummary
	Run     *ports.TrainResult
	Message string
}

// TrainCommand exports the current project and hands it to the external trainer
type TrainCommand struct {
	pm       *application.ProjectManager
	trainer  ports.Trainer
	ValRatio float64
}

// NewTrainCommand creates a new TrainCommand
func NewTrainCommand(pm *application.ProjectManager, trainer ports.Trainer, valRatio float64) *TrainCommand {
	return &TrainCommand{pm: pm, trainer: trainer, ValRatio: valRatio}
}

// Validate checks if the train operation is valid
func (c *TrainCommand) Validate() error {
	if c.trainer == nil || !c.trainer.IsAvailable() {
		return &application.ValidationError{Field: "trainer", Message: "training command not found"}
	}
	return application.ValidateValRatio(c.ValRatio)
}

// Execute runs the train command
func (c *TrainCommand) Execute(ctx context.Context) (*TrainResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := c.pm.Current()
	if p == nil {
		return nil, application.ErrNoProject
	}
	summary, err := c.pm.ExportDataset(ctx, "", c.ValRatio)
	if err != nil {
		return nil, err
	}
	if summary.Train == 0 {
		return nil, &application.ValidationError{Field: "dataset", Message: "no labeled images to train on"}
	}

	req := ports.TrainRequest{
		ProjectID:   p.ID,
		ProjectPath: p.Path,
		DatasetFile: summary.DescriptorPath,
	}
	if ws := c.pm.Workspace(); ws != nil {
		req.WorkspacePath = ws.WorkspacePath()
	}

	run, err := c.trainer.Train(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}

	msg := fmt.Sprintf("Training finished: results in %s", run.RunDir)
	if run.WeightsPath != "" {
		msg = fmt.Sprintf("Training finished: weights at %s", run.WeightsPath)
	}
	return &TrainResult{Export: summary, Run: run, Message: msg}, nil
}
