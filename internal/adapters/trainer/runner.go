package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"yololabel/internal/ports"
)

// DefaultCommand trains with the ultralytics CLI, writing runs under the project
const DefaultCommand = "yolo train data={data} project={runs}"

// Runner implements ports.Trainer by executing an external command
type Runner struct {
	command string
	logger  *slog.Logger
	stream  func(line string)
}

// Option configures the Runner
type Option func(*Runner)

// WithCommand sets the command line. {project}, {data} and {runs} are
// substituted; when none appear the project and dataset paths are appended.
func WithCommand(command string) Option {
	return func(r *Runner) {
		if strings.TrimSpace(command) != "" {
			r.command = command
		}
	}
}

// WithLogger sets the logger used for run diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithOutput receives every stdout line as the run progresses
func WithOutput(fn func(line string)) Option {
	return func(r *Runner) {
		r.stream = fn
	}
}

// NewRunner creates a new trainer runner
func NewRunner(opts ...Option) *Runner {
	r := &Runner{command: DefaultCommand}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Command returns the configured command line
func (r *Runner) Command() string {
	return r.command
}

// summaryJSON is the optional last stdout line a trainer may print
type summaryJSON struct {
	Weights string             `json:"weights"`
	Metrics map[string]float64 `json:"metrics"`
}

// Train runs the trainer and locates what it produced
func (r *Runner) Train(ctx context.Context, req ports.TrainRequest) (*ports.TrainResult, error) {
	if req.ProjectPath == "" || req.DatasetFile == "" {
		return nil, fmt.Errorf("trainer needs a project path and a dataset file")
	}

	args := r.args(req)
	r.logger.Info("starting trainer", "command", args[0], "args", args[1:], "project", req.ProjectID)
	started := time.Now()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = req.ProjectPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &lineWriter{buf: &stdout, fn: r.stream}
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("trainer exited with code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("trainer error: %w", err)
	}
	r.logger.Info("trainer finished", "duration", time.Since(started).Round(time.Second))

	output := stdout.String()
	result := &ports.TrainResult{Output: output}

	if summary, ok := parseSummary(output); ok {
		result.Metrics = summary.Metrics
		if summary.Weights != "" {
			result.WeightsPath = resolve(req.ProjectPath, summary.Weights)
			result.RunDir = runDirOf(result.WeightsPath)
		}
	}

	if result.RunDir == "" {
		runDir, weights := latestRun(filepath.Join(req.ProjectPath, "runs"), started)
		result.RunDir = runDir
		if result.WeightsPath == "" {
			result.WeightsPath = weights
		}
	}
	return result, nil
}

// IsAvailable checks if the trainer executable is installed and accessible
func (r *Runner) IsAvailable() bool {
	fields := strings.Fields(r.command)
	if len(fields) == 0 {
		return false
	}
	_, err := exec.LookPath(fields[0])
	return err == nil
}

func (r *Runner) args(req ports.TrainRequest) []string {
	runs := filepath.Join(req.ProjectPath, "runs")
	replacer := strings.NewReplacer(
		"{project}", req.ProjectPath,
		"{data}", req.DatasetFile,
		"{runs}", runs,
	)

	fields := strings.Fields(r.command)
	templated := false
	for i, f := range fields {
		if expanded := replacer.Replace(f); expanded != f {
			fields[i] = expanded
			templated = true
		}
	}
	if !templated {
		fields = append(fields, req.ProjectPath, req.DatasetFile)
	}
	return fields
}

// parseSummary extracts the JSON object on the last non-empty stdout line
func parseSummary(output string) (summaryJSON, bool) {
	lines := strings.Split(strings.TrimRight(output, "\r\n\t "), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if !strings.HasPrefix(last, "{") || !strings.HasSuffix(last, "}") {
		return summaryJSON{}, false
	}

	var s summaryJSON
	if err := json.Unmarshal([]byte(last), &s); err != nil {
		return summaryJSON{}, false
	}
	return s, true
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// runDirOf maps runs/detect/train/weights/best.pt to runs/detect/train
func runDirOf(weights string) string {
	dir := filepath.Dir(weights)
	if filepath.Base(dir) == "weights" {
		return filepath.Dir(dir)
	}
	return dir
}

// latestRun finds the newest weights file written under runs since the run
// started. When there is none it still reports the runs directory if present.
func latestRun(runs string, since time.Time) (string, string) {
	var newest string
	var newestTime time.Time

	_ = filepath.WalkDir(runs, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".pt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.ModTime().Before(since.Add(-time.Second)) {
			return nil
		}
		better := info.ModTime().After(newestTime) ||
			(info.ModTime().Equal(newestTime) && filepath.Base(path) == "best.pt")
		if newest == "" || better {
			newest = path
			newestTime = info.ModTime()
		}
		return nil
	})

	if newest != "" {
		return runDirOf(newest), newest
	}
	if info, err := os.Stat(runs); err == nil && info.IsDir() {
		return runs, ""
	}
	return "", ""
}

// lineWriter buffers stdout and forwards complete lines to fn
type lineWriter struct {
	buf     *bytes.Buffer
	fn      func(string)
	partial []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	if w.fn == nil {
		return len(p), nil
	}
	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.fn(strings.TrimRight(string(w.partial[:i]), "\r"))
		w.partial = w.partial[i+1:]
	}
	return len(p), nil
}
