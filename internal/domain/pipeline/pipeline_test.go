package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

const samplePipeline = `
name: code-review
required-reference-file:
  1: "docs/standards.md"
output-file:
  2: "review-report.md"
master:
  model: "claude-sonnet-4"
  system-prompt: "Orchestrate a thorough code review"
  process:
    - "static-analyzer"
    - "HUMAN_REVIEW"
    - "final-reporter"
sub-agents:
  - "static-analyzer"
  - "final-reporter"
`

func TestUnmarshal(t *testing.T) {
	var p Pipeline
	if err := yaml.Unmarshal([]byte(samplePipeline), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if p.Name != "code-review" {
		t.Errorf("expected name code-review, got %s", p.Name)
	}
	if p.Master.Model != "claude-sonnet-4" {
		t.Errorf("expected master model claude-sonnet-4, got %s", p.Master.Model)
	}
	if len(p.Master.Process) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(p.Master.Process))
	}
	if p.Master.Process[0].Agent != "static-analyzer" {
		t.Errorf("expected agent step, got %+v", p.Master.Process[0])
	}
	if !p.Master.Process[1].HumanReview {
		t.Errorf("expected review step, got %+v", p.Master.Process[1])
	}
	if p.RequiredReferenceFile[1] != "docs/standards.md" {
		t.Errorf("unexpected reference file map: %v", p.RequiredReferenceFile)
	}
	if p.OutputFile[2] != "review-report.md" {
		t.Errorf("unexpected output file map: %v", p.OutputFile)
	}

	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid pipeline, got %v", err)
	}
}

func TestStepString(t *testing.T) {
	if got := (Step{Agent: "planner"}).String(); got != "planner" {
		t.Errorf("expected planner, got %s", got)
	}
	if got := (Step{HumanReview: true}).String(); got != HumanReviewLiteral {
		t.Errorf("expected %s, got %s", HumanReviewLiteral, got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Pipeline)
		wantErr error
	}{
		{
			name:    "empty name",
			modify:  func(p *Pipeline) { p.Name = "" },
			wantErr: ErrNameRequired,
		},
		{
			name:    "no steps",
			modify:  func(p *Pipeline) { p.Master.Process = nil },
			wantErr: ErrNoSteps,
		},
		{
			name: "unknown agent",
			modify: func(p *Pipeline) {
				p.Master.Process = append(p.Master.Process, Step{Agent: "ghost"})
			},
			wantErr: ErrUnknownAgent,
		},
		{
			name: "empty step",
			modify: func(p *Pipeline) {
				p.Master.Process = append(p.Master.Process, Step{})
			},
			wantErr: ErrEmptyStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Pipeline
			if err := yaml.Unmarshal([]byte(samplePipeline), &p); err != nil {
				t.Fatal(err)
			}
			tt.modify(&p)
			if err := p.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "review.yaml"), []byte(samplePipeline), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	pipelines, err := LoadFromDirectory(dir)
	if err != nil {
		t.Fatalf("LoadFromDirectory returned error: %v", err)
	}
	if len(pipelines) != 1 {
		t.Fatalf("expected 1 pipeline, got %d", len(pipelines))
	}
	if pipelines[0].Name != "code-review" {
		t.Errorf("expected code-review, got %s", pipelines[0].Name)
	}
}

func TestLoadFromDirectoryMissing(t *testing.T) {
	pipelines, err := LoadFromDirectory("/nonexistent/pipelines")
	if err != nil {
		t.Fatalf("missing directory should not error, got %v", err)
	}
	if pipelines != nil {
		t.Fatalf("expected nil, got %v", pipelines)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	content := `
name: broken
master:
  model: "gpt-4"
  system-prompt: "x"
  process:
    - "missing-agent"
sub-agents: []
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromFile(path); !errors.Is(err, ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
}
