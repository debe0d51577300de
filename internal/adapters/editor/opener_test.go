package editor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFindEditor(t *testing.T) {
	noLook := func(string) (string, error) { return "", errors.New("not found") }

	tests := []struct {
		name   string
		editor string
		visual string
		env    string
		want   string
	}{
		{name: "explicit editor wins", editor: "hx", visual: "code -w", env: "vim", want: "hx"},
		{name: "visual before editor", visual: "code -w", env: "vim", want: "code -w"},
		{name: "editor env", env: "nano", want: "nano"},
		{name: "nothing configured", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VISUAL", tt.visual)
			t.Setenv("EDITOR", tt.env)
			o := NewOpener(tt.editor)
			o.lookPath = noLook
			if got := o.findEditor(); got != tt.want {
				t.Errorf("findEditor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommand_CreatesLabelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels", "img1.txt")

	cmd, err := NewOpener("code -w").Command(path)
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if len(cmd.Args) != 3 || cmd.Args[1] != "-w" || cmd.Args[2] != path {
		t.Errorf("unexpected args %q", cmd.Args)
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() != 0 {
		t.Errorf("expected empty label file, got %v %v", info, err)
	}
}

func TestCommand_KeepsExistingLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img1.txt")
	if err := os.WriteFile(path, []byte("0 0.5 0.5 0.1 0.1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewOpener("vi").Command(path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "0 0.5 0.5 0.1 0.1\n" {
		t.Errorf("label file modified: %q", data)
	}
}

func TestCommand_NoEditor(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	o := NewOpener("")
	o.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	if _, err := o.Command(filepath.Join(t.TempDir(), "a.txt")); err == nil {
		t.Error("expected error without an editor")
	}
}
