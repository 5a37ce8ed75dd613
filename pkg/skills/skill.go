// Package skills reads and writes the skills directory. Each skill is a
// directory named after the skill that holds a single SKILL.md file; the
// file content is the skill body, verbatim.
package skills

import "time"

// Entry is one skill file as seen on disk.
type Entry struct {
	Name    string
	Content string
	ModTime time.Time
}

// Metadata is the optional YAML frontmatter at the top of a SKILL.md file.
// It is informational only and stays part of the body.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}
