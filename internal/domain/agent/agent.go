// Package agent defines the Agent definition entity.
// Agents are described by Markdown files with YAML front matter; the file
// body is the agent's system prompt.
package agent

// Definition describes one configured AI agent. Definitions are immutable
// after loading and carry no runtime state.
type Definition struct {
	// Name identifies the agent; pipeline process steps reference it.
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	// Model selects the backend kind and variant, e.g. "claude-sonnet-4".
	Model string `json:"model" yaml:"model"`
	// Color is a UI display hint. Optional.
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
	// SystemPrompt is the Markdown body below the front matter.
	SystemPrompt string `json:"-" yaml:"-"`
}
