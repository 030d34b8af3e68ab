// Package pipeline defines pipeline definitions for multi-agent orchestration.
// Definitions are loaded from YAML files and describe an ordered process of
// agent steps with optional human review pause points.
package pipeline

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// HumanReviewLiteral is the sentinel string marking a review pause point
// inside a process list.
const HumanReviewLiteral = "HUMAN_REVIEW"

var (
	ErrNameRequired = errors.New("pipeline name is required")
	ErrNoSteps      = errors.New("pipeline must have at least one process step")
	ErrEmptyStep    = errors.New("process step must not be empty")
	ErrUnknownAgent = errors.New("process step references an agent not listed in sub-agents")
)

// Step is one entry in a pipeline's process list: either delegation to a
// named agent or a human review pause point.
type Step struct {
	// Agent names the agent to execute. Empty when HumanReview is set.
	Agent string
	// HumanReview marks a pause point requiring manual continuation.
	HumanReview bool
}

// UnmarshalYAML decodes a step from its scalar YAML form. The literal
// "HUMAN_REVIEW" becomes a review step; any other string names an agent.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("process step: %w", err)
	}
	if raw == HumanReviewLiteral {
		*s = Step{HumanReview: true}
		return nil
	}
	*s = Step{Agent: raw}
	return nil
}

// MarshalYAML encodes the step back to its scalar form.
func (s Step) MarshalYAML() (any, error) {
	return s.String(), nil
}

// MarshalJSON encodes the step as its scalar form for API consumers.
func (s Step) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

// String returns the agent name or the review literal.
func (s Step) String() string {
	if s.HumanReview {
		return HumanReviewLiteral
	}
	return s.Agent
}

// Master configures the orchestrating agent and the ordered process list.
type Master struct {
	Model        string `json:"model" yaml:"model"`
	SystemPrompt string `json:"system_prompt" yaml:"system-prompt"`
	Process      []Step `json:"process" yaml:"process"`
}

// Pipeline is a full pipeline definition loaded from
// <config-dir>/pipelines/*.yaml.
type Pipeline struct {
	Name string `json:"name" yaml:"name"`

	// RequiredReferenceFile maps a 1-based step index to a context file
	// the agent at that step should read.
	RequiredReferenceFile map[uint32]string `json:"required_reference_file,omitempty" yaml:"required-reference-file,omitempty"`

	// OutputFile maps a 1-based step index to the file the agent at that
	// step should write its result to.
	OutputFile map[uint32]string `json:"output_file,omitempty" yaml:"output-file,omitempty"`

	Master Master `json:"master" yaml:"master"`

	// SubAgents lists the agent names usable in the process list.
	SubAgents []string `json:"sub_agents" yaml:"sub-agents"`
}

// Validate checks the definition for structural correctness.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if len(p.Master.Process) == 0 {
		return ErrNoSteps
	}

	known := make(map[string]bool, len(p.SubAgents))
	for _, name := range p.SubAgents {
		known[name] = true
	}

	for i, s := range p.Master.Process {
		if s.HumanReview {
			continue
		}
		if s.Agent == "" {
			return fmt.Errorf("step %d: %w", i, ErrEmptyStep)
		}
		if !known[s.Agent] {
			return fmt.Errorf("step %d (%s): %w", i, s.Agent, ErrUnknownAgent)
		}
	}

	return nil
}
