package ports

import "context"

// TrainRequest describes one external training run
type TrainRequest struct {
	ProjectID     string
	ProjectPath   string
	WorkspacePath string
	DatasetFile   string // data.yaml prepared for the run
}

// TrainResult locates what the external process produced. The core never
// reads the weights themselves.
type TrainResult struct {
	RunDir      string
	WeightsPath string
	Metrics     map[string]float64
	Output      string
}

// Trainer runs an opaque external training process
type Trainer interface {
	Train(ctx context.Context, req TrainRequest) (*TrainResult, error)

	// IsAvailable returns true if the trainer executable can be found
	IsAvailable() bool
}
