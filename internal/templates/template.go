package templates

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is a named checklist pack parsed from a Markdown file. The YAML
// frontmatter declares the name, description, and item list; the Markdown
// body is free-form notes for humans and is kept verbatim.
type Template struct {
	Name        string
	Description string
	Items       []string
	Notes       string
}

// frontmatter holds the YAML block parsed from a template .md file.
type frontmatter struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Items       []string `yaml:"items"`
}

// Parse splits a Markdown string into its YAML frontmatter and body.
// Frontmatter must be delimited by "---" on lines by themselves.
func Parse(content string) (*Template, error) {
	const delimiter = "---"

	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, delimiter) {
		return nil, fmt.Errorf("no frontmatter found: content must start with %s", delimiter)
	}

	rest := trimmed[len(delimiter):]
	closingIdx := strings.Index(rest, "\n"+delimiter)
	if closingIdx == -1 {
		return nil, fmt.Errorf("no closing %s delimiter found", delimiter)
	}

	yamlContent := rest[:closingIdx]
	body := strings.TrimSpace(rest[closingIdx+len("\n"+delimiter):])

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(yamlContent), &fm); err != nil {
		return nil, fmt.Errorf("invalid YAML frontmatter: %w", err)
	}

	if fm.Name == "" {
		return nil, fmt.Errorf("frontmatter missing required field: name")
	}
	if len(fm.Items) == 0 {
		return nil, fmt.Errorf("frontmatter missing required field: items")
	}

	return &Template{
		Name:        fm.Name,
		Description: fm.Description,
		Items:       fm.Items,
		Notes:       body,
	}, nil
}
