package relocate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goplus/ceres-recipe/formula"
)

// Kind tags the family a Rule belongs to.
type Kind int

const (
	HeaderLibrary Kind = iota // header-only library, path and version re-stamped
	LibraryDir                // <pkg>_DIR directory assignment
	LibraryFile               // library file or include directory variables
)

func (k Kind) String() string {
	switch k {
	case HeaderLibrary:
		return "header-library"
	case LibraryDir:
		return "library-dir"
	case LibraryFile:
		return "library-file"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Placeholders written in place of build-machine paths.
const (
	EigenPlaceholder = "${CONAN_EIGEN_ROOT}"
	GlogPlaceholder  = "${CONAN_GLOG_ROOT}"
)

// Rule recognizes one class of build-machine path and rewrites it.
type Rule interface {
	Name() string
	Kind() Kind
	Placeholder() string
	// Apply rewrites every occurrence of the first match found in text.
	// It returns the matched base path, or "" when nothing matched.
	Apply(text string) (out, base string)
}

// pathChars is a run of characters that may appear in an unquoted path.
const pathChars = `[^\s"'();]`

// fingerprint is a path segment made of exactly 40 hex digits.
const fingerprint = `[/\\][0-9a-f]{40}\b`

type pathRule struct {
	name        string
	placeholder string
	re          *regexp.Regexp
}

func (r *pathRule) Name() string        { return r.name }
func (r *pathRule) Placeholder() string { return r.placeholder }

func (r *pathRule) match(text string) (base string, m []string) {
	m = r.re.FindStringSubmatch(text)
	if m == nil {
		return "", nil
	}
	return m[r.re.SubexpIndex("base")], m
}

// -----------------------------------------------------------------------------

// HeaderLibraryRule relocates a header library whose install path embeds its
// version, as in ".../eigen/3.2.9/<fingerprint>". The version is replaced by
// the current one on every line mentioning the library.
type HeaderLibraryRule struct {
	pathRule
	token   string
	version string
}

// NewHeaderLibraryRule returns the rule for library token. version is the
// version of the library the package is consumed with.
func NewHeaderLibraryRule(token, placeholder, version string) (*HeaderLibraryRule, error) {
	if formula.Canonical(version) == "" {
		return nil, &formula.Error{Op: "relocate", Subject: token, Kind: formula.ErrConfiguration,
			Err: fmt.Errorf("invalid current version %q", version)}
	}
	t := regexp.QuoteMeta(token)
	re := regexp.MustCompile(`(?i)` + t + `\S*[ \t]+"?(?P<base>` + pathChars + `*?` + t +
		`[/\\.](?P<version>\d+\.\d+\.\d+)` + `(?:[/\\]` + pathChars + `*?)?` + fingerprint + `)`)
	return &HeaderLibraryRule{
		pathRule: pathRule{name: token, placeholder: placeholder, re: re},
		token:    token,
		version:  version,
	}, nil
}

func (r *HeaderLibraryRule) Kind() Kind { return HeaderLibrary }

func (r *HeaderLibraryRule) Apply(text string) (string, string) {
	base, m := r.match(text)
	if m == nil {
		return text, ""
	}
	old := m[r.re.SubexpIndex("version")]
	text = strings.ReplaceAll(text, base, r.placeholder)
	if old == r.version {
		return text, base
	}
	lines := strings.SplitAfter(text, "\n")
	for i, line := range lines {
		if containsFold(line, r.token) {
			lines[i] = replaceVersion(line, old, r.version)
		}
	}
	return strings.Join(lines, ""), base
}

// LibraryDirRule relocates "<name>_DIR <path>" assignments.
type LibraryDirRule struct {
	pathRule
}

// NewLibraryDirRule returns the rule for the <token>_DIR variable.
func NewLibraryDirRule(token, placeholder string) *LibraryDirRule {
	t := regexp.QuoteMeta(token)
	re := regexp.MustCompile(`(?i)\b` + t + `_DIR[ \t]+"?(?P<base>` + pathChars + `*?` + t + pathChars + `*?` + fingerprint + `)`)
	return &LibraryDirRule{pathRule{name: token + "_DIR", placeholder: placeholder, re: re}}
}

func (r *LibraryDirRule) Kind() Kind { return LibraryDir }

func (r *LibraryDirRule) Apply(text string) (string, string) {
	base, m := r.match(text)
	if m == nil {
		return text, ""
	}
	return strings.ReplaceAll(text, base, r.placeholder), base
}

// LibraryFileRule relocates the include directory and library variables,
// e.g. GLOG_INCLUDE_DIR or GLOG_LIBRARY.
type LibraryFileRule struct {
	pathRule
}

// NewLibraryFileRule returns the rule for the <TOKEN>_INCLUDE_DIR(S),
// <TOKEN>_LIBRARY, <TOKEN>_LIBRARIES and <TOKEN>_LIBRARY_DIR(S) variables.
func NewLibraryFileRule(token, placeholder string) *LibraryFileRule {
	t := regexp.QuoteMeta(token)
	re := regexp.MustCompile(`(?i)\b` + t + `_(?:INCLUDE_DIRS?|LIBRARY_DIRS?|LIBRARY|LIBRARIES)[ \t]+"?(?P<base>` +
		pathChars + `*?` + t + pathChars + `*?` + fingerprint + `)`)
	return &LibraryFileRule{pathRule{name: strings.ToUpper(token) + "_LIBRARY", placeholder: placeholder, re: re}}
}

func (r *LibraryFileRule) Kind() Kind { return LibraryFile }

func (r *LibraryFileRule) Apply(text string) (string, string) {
	base, m := r.match(text)
	if m == nil {
		return text, ""
	}
	return strings.ReplaceAll(text, base, r.placeholder), base
}

// DefaultRules returns the rules for the paths ceres find-scripts leak:
// eigen, then glog in its directory and library forms.
func DefaultRules(eigenVersion string) ([]Rule, error) {
	eigen, err := NewHeaderLibraryRule(formula.DepEigen, EigenPlaceholder, eigenVersion)
	if err != nil {
		return nil, err
	}
	return []Rule{
		eigen,
		NewLibraryDirRule(formula.DepGlog, GlogPlaceholder),
		NewLibraryFileRule(formula.DepGlog, GlogPlaceholder),
	}, nil
}

// -----------------------------------------------------------------------------

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// replaceVersion replaces old in s where it stands as a whole version, not
// as part of a longer one ("3.2.9" but not "13.2.9" or "3.2.90").
func replaceVersion(s, old, repl string) string {
	var b strings.Builder
	for {
		i := strings.Index(s, old)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := i + len(old)
		if extendsBefore(s, i) || extendsAfter(s, end) {
			b.WriteString(s[:end])
		} else {
			b.WriteString(s[:i])
			b.WriteString(repl)
		}
		s = s[end:]
	}
}

func extendsBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	if isDigit(s[i-1]) {
		return true
	}
	return s[i-1] == '.' && i > 1 && isDigit(s[i-2])
}

func extendsAfter(s string, end int) bool {
	if end >= len(s) {
		return false
	}
	if isDigit(s[end]) {
		return true
	}
	return s[end] == '.' && end+1 < len(s) && isDigit(s[end+1])
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
