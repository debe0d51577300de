package trainer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"yololabel/internal/ports"
)

func setupProject(t *testing.T, script string) ports.TrainRequest {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "train.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	data := filepath.Join(dir, "export", "data.yaml")
	return ports.TrainRequest{ProjectID: "project_1", ProjectPath: dir, DatasetFile: data}
}

func TestArgs(t *testing.T) {
	req := ports.TrainRequest{ProjectPath: "/p", DatasetFile: "/p/export/data.yaml"}

	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{
			name: "default yolo command",
			want: []string{"yolo", "train", "data=/p/export/data.yaml", "project=/p/runs"},
		},
		{
			name:    "templated command",
			command: "python train.py --data {data} --out {project}/out",
			want:    []string{"python", "train.py", "--data", "/p/export/data.yaml", "--out", "/p/out"},
		},
		{
			name:    "plain command gets positional paths",
			command: "./train.sh --fast",
			want:    []string{"./train.sh", "--fast", "/p", "/p/export/data.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRunner(WithCommand(tt.command)).args(req)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("args() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		wantOK      bool
		wantWeights string
	}{
		{
			name:        "trailing summary line",
			output:      "epoch 1/3\nepoch 2/3\n{\"weights\": \"runs/w/best.pt\", \"metrics\": {\"mAP50\": 0.7}}\n",
			wantOK:      true,
			wantWeights: "runs/w/best.pt",
		},
		{
			name:   "summary not last",
			output: "{\"weights\": \"a.pt\"}\ndone\n",
		},
		{
			name:   "broken json",
			output: "{\"weights\": }\n",
		},
		{
			name: "empty output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseSummary(tt.output)
			if ok != tt.wantOK {
				t.Fatalf("parseSummary() ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Weights != tt.wantWeights {
				t.Errorf("Weights = %q, want %q", got.Weights, tt.wantWeights)
			}
		})
	}
}

func TestTrain_SummaryLine(t *testing.T) {
	req := setupProject(t, "echo \"epoch 1/1\"\n"+
		"echo '{\"weights\": \"runs/detect/train/weights/best.pt\", \"metrics\": {\"mAP50\": 0.5}}'\n")

	var lines []string
	r := NewRunner(WithCommand("sh train.sh"), WithOutput(func(l string) { lines = append(lines, l) }))
	res, err := r.Train(context.Background(), req)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	wantWeights := filepath.Join(req.ProjectPath, "runs", "detect", "train", "weights", "best.pt")
	if res.WeightsPath != wantWeights {
		t.Errorf("WeightsPath = %q, want %q", res.WeightsPath, wantWeights)
	}
	if res.RunDir != filepath.Join(req.ProjectPath, "runs", "detect", "train") {
		t.Errorf("unexpected RunDir %q", res.RunDir)
	}
	if res.Metrics["mAP50"] != 0.5 {
		t.Errorf("unexpected metrics %v", res.Metrics)
	}
	if len(lines) != 2 || lines[0] != "epoch 1/1" {
		t.Errorf("unexpected streamed lines %q", lines)
	}
}

func TestTrain_LocatesRunWithoutSummary(t *testing.T) {
	req := setupProject(t, "mkdir -p runs/detect/train2/weights\n"+
		"touch runs/detect/train2/weights/best.pt\n"+
		"echo done\n")

	res, err := NewRunner(WithCommand("sh train.sh")).Train(context.Background(), req)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if res.RunDir != filepath.Join(req.ProjectPath, "runs", "detect", "train2") {
		t.Errorf("unexpected RunDir %q", res.RunDir)
	}
	if filepath.Base(res.WeightsPath) != "best.pt" {
		t.Errorf("unexpected WeightsPath %q", res.WeightsPath)
	}
	if strings.TrimSpace(res.Output) != "done" {
		t.Errorf("unexpected output %q", res.Output)
	}
}

func TestTrain_Failure(t *testing.T) {
	req := setupProject(t, "echo boom >&2\nexit 3\n")

	_, err := NewRunner(WithCommand("sh train.sh")).Train(context.Background(), req)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "code 3") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestTrain_RequiresPaths(t *testing.T) {
	_, err := NewRunner().Train(context.Background(), ports.TrainRequest{ProjectPath: "/p"})
	if err == nil {
		t.Error("expected error without dataset file")
	}
}

func TestIsAvailable(t *testing.T) {
	if _, err := exec.LookPath("sh"); err == nil {
		if !NewRunner(WithCommand("sh train.sh")).IsAvailable() {
			t.Error("expected sh to be available")
		}
	}
	if NewRunner(WithCommand("yololabel-no-such-trainer")).IsAvailable() {
		t.Error("expected missing executable to be unavailable")
	}
}

func TestRunDirOf(t *testing.T) {
	if got := runDirOf("/p/runs/a/weights/best.pt"); got != "/p/runs/a" {
		t.Errorf("runDirOf = %q", got)
	}
	if got := runDirOf("/p/out/model.pt"); got != "/p/out" {
		t.Errorf("runDirOf = %q", got)
	}
}
