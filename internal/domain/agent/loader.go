package agent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

var (
	ErrNoFrontMatter = errors.New("agent file has no YAML front matter")
	ErrNameRequired  = errors.New("agent name is required")
	ErrModelRequired = errors.New("agent model is required")
)

// LoadFromFile reads a single Definition from a Markdown file with YAML
// front matter. The body below the front matter becomes the system prompt.
func LoadFromFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		return nil, fmt.Errorf("read agent file %s: %w", path, err)
	}

	def, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse agent file %s: %w", path, err)
	}

	return def, nil
}

// Parse splits front matter from body and unmarshals the Definition.
func Parse(content string) (*Definition, error) {
	meta, body, err := splitFrontMatter(content)
	if err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal([]byte(meta), &def); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	def.SystemPrompt = strings.TrimSpace(body)

	if def.Name == "" {
		return nil, ErrNameRequired
	}
	if def.Model == "" {
		return nil, ErrModelRequired
	}

	return &def, nil
}

// splitFrontMatter separates the leading "---" delimited YAML block from
// the Markdown body.
func splitFrontMatter(content string) (meta, body string, err error) {
	trimmed := strings.TrimLeft(content, "\r\n \t")
	if !strings.HasPrefix(trimmed, frontMatterDelim) {
		return "", "", ErrNoFrontMatter
	}

	rest := trimmed[len(frontMatterDelim):]
	idx := strings.Index(rest, "\n"+frontMatterDelim)
	if idx < 0 {
		return "", "", ErrNoFrontMatter
	}

	meta = rest[:idx]
	body = rest[idx+len(frontMatterDelim)+1:]
	// Drop the remainder of the closing delimiter line.
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	return meta, body, nil
}

// LoadFromDirectory reads all .md files from a directory and returns the
// parsed Definitions. Missing directories return an empty slice, not an
// error.
func LoadFromDirectory(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read agent directory %s: %w", dir, err)
	}

	var defs []Definition
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ".md" {
			continue
		}

		def, err := LoadFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}

	return defs, nil
}
