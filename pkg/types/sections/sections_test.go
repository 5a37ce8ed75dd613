package sections

import (
	"io/fs"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewAndContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		lines   []string
	}{
		{"empty", "", nil},
		{"single line", "Do X.", []string{"Do X."}},
		{"trailing newline", "Do X.\n", []string{"Do X.", ""}},
		{"crlf kept", "a\r\nb", []string{"a\r", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("foo", tt.content)
			assert.Equal(t, tt.lines, s.Lines)
			assert.Equal(t, tt.content, s.Content())
		})
	}
}

func TestEqual(t *testing.T) {
	a := New("foo", "Do X.")
	assert.True(t, a.Equal(New("foo", "Do X.")))
	assert.False(t, a.Equal(New("bar", "Do X.")))
	assert.False(t, a.Equal(New("foo", "Do Y.")))
}

func TestClone(t *testing.T) {
	a := New("foo", "one\ntwo")
	b := a.Clone()
	b.Lines[0] = "changed"
	assert.Equal(t, "one", a.Lines[0])
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "foo", false},
		{"dash and underscore", "go-style_guide2", false},
		{"empty", "", true},
		{"slash", "foo/bar", true},
		{"backslash", `foo\bar`, true},
		{"dot dot", "..", true},
		{"space", "foo bar", true},
		{"unicode", "föö", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidName))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a\nb", Normalize("a\r\nb\r\n"))
	assert.Equal(t, "a", Normalize("a\n\n\n"))
	assert.Equal(t, Normalize("Do X."), Normalize("Do X.\n"))
}

func TestWrapIOKeepsCause(t *testing.T) {
	cause := &os.PathError{Op: "open", Path: "/skills/foo/SKILL.md", Err: fs.ErrPermission}
	err := WrapIO(cause, "failed to read skill '%s'", "foo")

	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "failed to read skill 'foo': open /skills/foo/SKILL.md: permission denied", err.Error())

	var pathErr *os.PathError
	assert.True(t, errors.As(err, &pathErr))
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("Do X."), Fingerprint("Do X.\r\n\n"))
	assert.NotEqual(t, Fingerprint("Do X."), Fingerprint("Do Y."))
	assert.Len(t, Fingerprint(""), 64)
}
