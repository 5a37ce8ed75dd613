// Package agentsmd parses and renders the aggregate AGENTS.md file.
//
// A section is delimited by marker comments and carries a level-two header
// with the same name:
//
//	<!-- prime-agent(Start NAME) -->
//	## NAME
//	...body...
//	<!-- prime-agent(End NAME) -->
//
// Everything outside a section is kept verbatim as text, and section bodies are
// kept verbatim too. Documents are split on "\n" only. Marker and header lines
// are the one place Render normalizes: trailing spaces, tabs and '\r' on those
// lines are dropped and the marker name is trimmed. For a file already in that
// canonical form Render(Parse(text)) reproduces text byte for byte.
package agentsmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/jingkaihe/prime-agent/pkg/types/sections"
)

const (
	startPrefix = "<!-- prime-agent(Start "
	endPrefix   = "<!-- prime-agent(End "
	markerClose = ") -->"
)

// segment is either a run of verbatim text lines or a section.
type segment struct {
	text    []string
	section *sections.Section
}

// Document is an ordered list of text runs and sections.
type Document struct {
	segments []segment
}

// Empty returns a document with no content.
func Empty() *Document {
	return &Document{}
}

// Parse splits text into text runs and sections. Lines that are not a start
// marker are text. Once a start marker is seen the header line and end marker
// are required.
func Parse(text string) (*Document, error) {
	doc := &Document{}
	lines := sections.SplitLines(text)
	seen := make(map[string]bool)

	var pending []string
	for i := 0; i < len(lines); i++ {
		name, ok := parseStartMarker(lines[i])
		if !ok {
			pending = append(pending, lines[i])
			continue
		}

		if err := sections.ValidateName(name); err != nil {
			return nil, errors.Wrapf(err, "line %d", i+1)
		}
		if seen[name] {
			return nil, errors.Wrapf(sections.ErrDuplicateSection, "section '%s' appears more than once (line %d)", name, i+1)
		}
		seen[name] = true

		if len(pending) > 0 {
			doc.segments = append(doc.segments, segment{text: pending})
			pending = nil
		}

		i++
		if i >= len(lines) {
			return nil, errors.Wrapf(sections.ErrMalformed, "missing section header after start marker for '%s'", name)
		}
		header := strings.TrimRight(lines[i], " \t\r")
		if header != headerLine(name) {
			return nil, errors.Wrapf(sections.ErrMalformed, "expected header '%s', found '%s' (line %d)", headerLine(name), header, i+1)
		}

		i++
		var body []string
		for ; i < len(lines) && !isEndMarker(lines[i], name); i++ {
			body = append(body, lines[i])
		}
		if i >= len(lines) {
			return nil, errors.Wrapf(sections.ErrMalformed, "missing end marker for '%s'", name)
		}

		doc.segments = append(doc.segments, segment{section: &sections.Section{Name: name, Lines: body}})
	}

	if len(pending) > 0 {
		doc.segments = append(doc.segments, segment{text: pending})
	}
	return doc, nil
}

// Render serializes the document. It is the inverse of Parse.
func (d *Document) Render() string {
	var lines []string
	for _, seg := range d.segments {
		if seg.section == nil {
			lines = append(lines, seg.text...)
			continue
		}
		lines = appendSection(lines, *seg.section)
	}
	return strings.Join(lines, "\n")
}

// RenderSections builds a fresh aggregate from sections in the given order,
// separated by one blank line.
func RenderSections(secs []sections.Section) string {
	var lines []string
	for i, s := range secs {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = appendSection(lines, s)
	}
	return strings.Join(lines, "\n")
}

// SectionNames returns section names in document order.
func (d *Document) SectionNames() []string {
	var names []string
	for _, seg := range d.segments {
		if seg.section != nil {
			names = append(names, seg.section.Name)
		}
	}
	return names
}

// Sections returns copies of the sections in document order.
func (d *Document) Sections() []sections.Section {
	var out []sections.Section
	for _, seg := range d.segments {
		if seg.section != nil {
			out = append(out, seg.section.Clone())
		}
	}
	return out
}

// Section looks up a section by name.
func (d *Document) Section(name string) (sections.Section, bool) {
	for _, seg := range d.segments {
		if seg.section != nil && seg.section.Name == name {
			return seg.section.Clone(), true
		}
	}
	return sections.Section{}, false
}

// Preamble returns the text before the first section.
func (d *Document) Preamble() string {
	if len(d.segments) == 0 || d.segments[0].section != nil {
		return ""
	}
	return strings.Join(d.segments[0].text, "\n")
}

// Upsert replaces the section with the same name in place. A new section is
// inserted right after the last existing section, or appended when there is
// none.
func (d *Document) Upsert(s sections.Section) {
	s = s.Clone()
	last := -1
	for i := range d.segments {
		if d.segments[i].section == nil {
			continue
		}
		if d.segments[i].section.Name == s.Name {
			d.segments[i].section = &s
			return
		}
		last = i
	}

	seg := segment{section: &s}
	if last == -1 {
		d.segments = append(d.segments, seg)
		return
	}
	d.segments = append(d.segments, segment{})
	copy(d.segments[last+2:], d.segments[last+1:])
	d.segments[last+1] = seg
}

// Remove drops the named section and reports whether it existed.
func (d *Document) Remove(name string) bool {
	for i, seg := range d.segments {
		if seg.section != nil && seg.section.Name == name {
			d.segments = append(d.segments[:i], d.segments[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := &Document{segments: make([]segment, len(d.segments))}
	for i, seg := range d.segments {
		if seg.section != nil {
			s := seg.section.Clone()
			out.segments[i] = segment{section: &s}
			continue
		}
		text := make([]string, len(seg.text))
		copy(text, seg.text)
		out.segments[i] = segment{text: text}
	}
	return out
}

// CheckBody rejects a body holding the end marker of its own section. Such a
// line would close the section early once rendered, so the rest of the body
// could not be parsed back.
func CheckBody(name, content string) error {
	for i, line := range sections.SplitLines(content) {
		if isEndMarker(line, name) {
			return errors.Wrapf(sections.ErrInvalidBody, "skill '%s' line %d is its own end marker %q", name, i+1, endMarker(name))
		}
	}
	return nil
}

func appendSection(lines []string, s sections.Section) []string {
	lines = append(lines, startMarker(s.Name), headerLine(s.Name))
	lines = append(lines, s.Lines...)
	return append(lines, endMarker(s.Name))
}

func parseStartMarker(line string) (string, bool) {
	line = strings.TrimRight(line, " \t\r")
	if !strings.HasPrefix(line, startPrefix) || !strings.HasSuffix(line, markerClose) {
		return "", false
	}
	if len(line) < len(startPrefix)+len(markerClose) {
		return "", false
	}
	name := strings.TrimSpace(line[len(startPrefix) : len(line)-len(markerClose)])
	if name == "" {
		return "", false
	}
	return name, true
}

func isEndMarker(line, name string) bool {
	return strings.TrimRight(line, " \t\r") == endMarker(name)
}

func startMarker(name string) string {
	return fmt.Sprintf("%s%s%s", startPrefix, name, markerClose)
}

func endMarker(name string) string {
	return fmt.Sprintf("%s%s%s", endPrefix, name, markerClose)
}

func headerLine(name string) string {
	return "## " + name
}
