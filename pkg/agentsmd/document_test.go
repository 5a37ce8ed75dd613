package agentsmd

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/prime-agent/pkg/types/sections"
)

const sampleDoc = `# Project rules

Read these first.
<!-- prime-agent(Start foo) -->
## foo
Do X.
<!-- prime-agent(End foo) -->

<!-- prime-agent(Start bar) -->
## bar
Do Y.

- with a list
<!-- prime-agent(End bar) -->
trailing notes
`

func TestParse(t *testing.T) {
	doc, err := Parse(sampleDoc)
	require.NoError(t, err)

	assert.Equal(t, []string{"foo", "bar"}, doc.SectionNames())
	assert.Equal(t, "# Project rules\n\nRead these first.", doc.Preamble())

	foo, ok := doc.Section("foo")
	require.True(t, ok)
	assert.Equal(t, "Do X.", foo.Content())

	bar, ok := doc.Section("bar")
	require.True(t, ok)
	assert.Equal(t, "Do Y.\n\n- with a list", bar.Content())

	_, ok = doc.Section("missing")
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	inputs := map[string]string{
		"sample":             sampleDoc,
		"empty":              "",
		"text only":          "# Title\n\nNo sections here.\n",
		"single newline":     "\n",
		"section only":       "<!-- prime-agent(Start a) -->\n## a\n<!-- prime-agent(End a) -->",
		"empty body newline": "<!-- prime-agent(Start a) -->\n## a\n\n<!-- prime-agent(End a) -->\n",
		"crlf body":          "<!-- prime-agent(Start a) -->\n## a\nline one\r\nline two\r\n<!-- prime-agent(End a) -->\n",
		"marker-like text":   "<!-- prime-agent(Start ) -->\n<!-- prime-agent(End foo) -->\n",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse(input)
			require.NoError(t, err)
			assert.Equal(t, input, doc.Render())

			again, err := Parse(doc.Render())
			require.NoError(t, err)
			assert.Equal(t, doc.Sections(), again.Sections())
		})
	}
}

func TestRenderNormalizesMarkerLines(t *testing.T) {
	input := "<!-- prime-agent(Start  foo ) -->  \r\n## foo \r\nbody\r\n<!-- prime-agent(End foo) --> \r\n"
	doc, err := Parse(input)
	require.NoError(t, err)

	foo, ok := doc.Section("foo")
	require.True(t, ok)
	assert.Equal(t, "body\r", foo.Content())
	assert.Equal(t, "<!-- prime-agent(Start foo) -->\n## foo\nbody\r\n<!-- prime-agent(End foo) -->\n", doc.Render())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  error
	}{
		{
			name:  "duplicate section",
			input: "<!-- prime-agent(Start a) -->\n## a\n<!-- prime-agent(End a) -->\n<!-- prime-agent(Start a) -->\n## a\n<!-- prime-agent(End a) -->",
			kind:  sections.ErrDuplicateSection,
		},
		{
			name:  "missing header",
			input: "<!-- prime-agent(Start a) -->",
			kind:  sections.ErrMalformed,
		},
		{
			name:  "wrong header",
			input: "<!-- prime-agent(Start a) -->\n## b\n<!-- prime-agent(End a) -->",
			kind:  sections.ErrMalformed,
		},
		{
			name:  "missing end marker",
			input: "<!-- prime-agent(Start a) -->\n## a\nbody\n<!-- prime-agent(End b) -->",
			kind:  sections.ErrMalformed,
		},
		{
			name:  "invalid name",
			input: "<!-- prime-agent(Start ../etc) -->\n## ../etc\n<!-- prime-agent(End ../etc) -->",
			kind:  sections.ErrInvalidName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestRenderSections(t *testing.T) {
	out := RenderSections([]sections.Section{
		sections.New("b", "Do Y."),
		sections.New("a", "Do X.\n"),
	})

	expected := "<!-- prime-agent(Start b) -->\n## b\nDo Y.\n<!-- prime-agent(End b) -->\n" +
		"\n" +
		"<!-- prime-agent(Start a) -->\n## a\nDo X.\n\n<!-- prime-agent(End a) -->"
	assert.Equal(t, expected, out)

	doc, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, doc.SectionNames())

	a, _ := doc.Section("a")
	assert.Equal(t, "Do X.\n", a.Content())
	assert.Empty(t, RenderSections(nil))
}

func TestUpsert(t *testing.T) {
	t.Run("replace in place", func(t *testing.T) {
		doc, err := Parse(sampleDoc)
		require.NoError(t, err)

		doc.Upsert(sections.New("foo", "Do Z."))
		assert.Equal(t, []string{"foo", "bar"}, doc.SectionNames())
		foo, _ := doc.Section("foo")
		assert.Equal(t, "Do Z.", foo.Content())
		assert.Contains(t, doc.Render(), "trailing notes")
	})

	t.Run("insert after last section", func(t *testing.T) {
		doc, err := Parse(sampleDoc)
		require.NoError(t, err)

		doc.Upsert(sections.New("baz", "Do W."))
		assert.Equal(t, []string{"foo", "bar", "baz"}, doc.SectionNames())

		rendered := doc.Render()
		assert.Contains(t, rendered, "<!-- prime-agent(End bar) -->\n<!-- prime-agent(Start baz) -->")
		assert.Contains(t, rendered, "<!-- prime-agent(End baz) -->\ntrailing notes\n")
	})

	t.Run("append to text-only document", func(t *testing.T) {
		doc, err := Parse("# Title\n")
		require.NoError(t, err)

		doc.Upsert(sections.New("foo", "Do X."))
		assert.Equal(t, "# Title\n\n<!-- prime-agent(Start foo) -->\n## foo\nDo X.\n<!-- prime-agent(End foo) -->", doc.Render())
	})

	t.Run("append to empty document", func(t *testing.T) {
		doc := Empty()
		doc.Upsert(sections.New("foo", "Do X."))
		assert.Equal(t, RenderSections([]sections.Section{sections.New("foo", "Do X.")}), doc.Render())
	})
}

func TestRemove(t *testing.T) {
	doc, err := Parse(sampleDoc)
	require.NoError(t, err)

	assert.True(t, doc.Remove("foo"))
	assert.False(t, doc.Remove("foo"))
	assert.Equal(t, []string{"bar"}, doc.SectionNames())

	bar, _ := doc.Section("bar")
	assert.Equal(t, "Do Y.\n\n- with a list", bar.Content())
	assert.Contains(t, doc.Render(), "Read these first.\n\n<!-- prime-agent(Start bar) -->")
}

func TestClone(t *testing.T) {
	doc, err := Parse(sampleDoc)
	require.NoError(t, err)

	clone := doc.Clone()
	clone.Upsert(sections.New("foo", "changed"))
	clone.Remove("bar")

	foo, _ := doc.Section("foo")
	assert.Equal(t, "Do X.", foo.Content())
	assert.Equal(t, sampleDoc, doc.Render())
}

func TestCheckBody(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"plain body", "Do X.\n", false},
		{"other section markers", "<!-- prime-agent(Start bar) -->\n<!-- prime-agent(End bar) -->", false},
		{"own end marker", "A\n<!-- prime-agent(End foo) -->\nB\n", true},
		{"own end marker with crlf", "<!-- prime-agent(End foo) -->\r\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBody("foo", tt.content)
			if tt.wantErr {
				assert.True(t, errors.Is(err, sections.ErrInvalidBody))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckedBodyRoundTrips(t *testing.T) {
	body := "<!-- prime-agent(Start bar) -->\n## bar\n<!-- prime-agent(End bar) -->\n"
	require.NoError(t, CheckBody("foo", body))

	text := RenderSections([]sections.Section{sections.New("foo", body)})
	doc, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, doc.SectionNames())
	foo, ok := doc.Section("foo")
	require.True(t, ok)
	assert.Equal(t, body, foo.Content())
	assert.Equal(t, text, doc.Render())
}
