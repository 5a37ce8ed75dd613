// Package sections defines the named Markdown block shared by the aggregate
// AGENTS.md document and the skills directory, together with the error kinds
// every prime-agent operation reports.
package sections

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// Error kinds. Operations wrap these with the offending name or path, so
// callers match them with errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidName            = errors.New("invalid name")
	ErrDuplicateSection       = errors.New("duplicate section")
	ErrMalformed              = errors.New("malformed aggregate file")
	ErrReconciliationConflict = errors.New("reconciliation conflict")
	ErrIO                     = errors.New("io failure")
	ErrInvalidBody            = errors.New("invalid skill body")
)

type ioError struct {
	cause error
}

func (e *ioError) Error() string        { return e.cause.Error() }
func (e *ioError) Unwrap() error        { return e.cause }
func (e *ioError) Is(target error) bool { return target == ErrIO }

// WrapIO marks a filesystem error as ErrIO and adds context. The original
// error stays in the chain, so errors.Is(err, fs.ErrPermission) still holds.
func WrapIO(err error, format string, args ...any) error {
	return errors.Wrapf(&ioError{cause: err}, format, args...)
}

// Section is a named block of Markdown. Lines holds the body split on "\n";
// an empty body has no lines.
type Section struct {
	Name  string
	Lines []string
}

// New builds a Section from a raw body.
func New(name, content string) Section {
	return Section{
		Name:  name,
		Lines: SplitLines(content),
	}
}

// Content joins the body lines back into the raw body.
func (s Section) Content() string {
	return strings.Join(s.Lines, "\n")
}

// Equal compares name and body only.
func (s Section) Equal(other Section) bool {
	return s.Name == other.Name && s.Content() == other.Content()
}

// Clone returns a copy that shares no backing array with s.
func (s Section) Clone() Section {
	lines := make([]string, len(s.Lines))
	copy(lines, s.Lines)
	return Section{Name: s.Name, Lines: lines}
}

// ValidateName rejects names that cannot be used as a single skill directory.
// Only ASCII letters, digits, '-' and '_' are allowed.
func ValidateName(name string) error {
	if name == "" {
		return errors.Wrap(ErrInvalidName, "skill name cannot be empty")
	}
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
		default:
			return errors.Wrapf(ErrInvalidName, "skill name '%s' must contain only letters, digits, '-' or '_'", name)
		}
	}
	return nil
}

// SplitLines splits content on "\n" keeping every byte, including a trailing
// newline, which shows up as a final empty element.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// Normalize is the comparison form of a body: CRLF becomes LF and trailing
// newlines are dropped. It is never written to disk.
func Normalize(content string) string {
	return strings.TrimRight(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

// Fingerprint identifies the normalized form of a body. Bodies that only
// differ in line endings or trailing newlines share a fingerprint.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(Normalize(content)))
	return hex.EncodeToString(sum[:])
}
