package formula

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/goplus/ceres-recipe/pkgs/mod/module"
)

// Range is a version range with an optional lower and upper bound,
// written "[>=3.2.0,<3.3.4]" in the package manager's syntax.
type Range struct {
	Lower          string
	LowerInclusive bool
	Upper          string
	UpperInclusive bool
}

// AtLeast returns the open-ended range [>=lower].
func AtLeast(lower string) Range {
	return Range{Lower: lower, LowerInclusive: true}
}

// Above returns the open-ended range [>lower].
func Above(lower string) Range {
	return Range{Lower: lower}
}

// Between returns the half-open range [>=lower,<upper].
func Between(lower, upper string) Range {
	return Range{Lower: lower, LowerInclusive: true, Upper: upper}
}

// Bounded reports whether r has an upper bound.
func (r Range) Bounded() bool {
	return r.Upper != ""
}

// Allows reports whether version lies within r. Versions that do not parse
// as semantic versions are never allowed.
func (r Range) Allows(version string) bool {
	v := Canonical(version)
	if v == "" {
		return false
	}
	if r.Lower != "" {
		c := semver.Compare(v, Canonical(r.Lower))
		if c < 0 || (c == 0 && !r.LowerInclusive) {
			return false
		}
	}
	if r.Upper != "" {
		c := semver.Compare(v, Canonical(r.Upper))
		if c > 0 || (c == 0 && !r.UpperInclusive) {
			return false
		}
	}
	return true
}

func (r Range) String() string {
	var parts []string
	if r.Lower != "" {
		op := ">"
		if r.LowerInclusive {
			op = ">="
		}
		parts = append(parts, op+r.Lower)
	}
	if r.Upper != "" {
		op := "<"
		if r.UpperInclusive {
			op = "<="
		}
		parts = append(parts, op+r.Upper)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ParseRange parses the "[>=a,<b]" syntax produced by Range.String.
func ParseRange(s string) (Range, error) {
	body, ok := strings.CutPrefix(s, "[")
	if ok {
		body, ok = strings.CutSuffix(body, "]")
	}
	if !ok {
		return Range{}, fmt.Errorf("range %q: missing brackets", s)
	}
	var r Range
	for part := range strings.SplitSeq(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var op, ver string
		for _, candidate := range []string{">=", "<=", ">", "<"} {
			if rest, found := strings.CutPrefix(part, candidate); found {
				op, ver = candidate, strings.TrimSpace(rest)
				break
			}
		}
		if op == "" || Canonical(ver) == "" {
			return Range{}, fmt.Errorf("range %q: bad bound %q", s, part)
		}
		switch op {
		case ">=", ">":
			r.Lower, r.LowerInclusive = ver, op == ">="
		case "<=", "<":
			r.Upper, r.UpperInclusive = ver, op == "<="
		}
	}
	return r, nil
}

// Canonical returns the semver form ("v1.2.3") of a bare version string,
// or "" if it is not a valid semantic version.
func Canonical(version string) string {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// -----------------------------------------------------------------------------

// Requirement is a declared dependency of the package.
type Requirement struct {
	Name  string
	Range Range
}

// Module returns the requirement as a module version whose Version is the
// range expression.
func (r Requirement) Module() module.Version {
	return module.Version{Path: r.Name, Version: r.Range.String()}
}

// Ref renders the requirement as a package reference, e.g.
// "eigen/[>=3.2.0]@ntc/stable". An empty userChannel is omitted.
func (r Requirement) Ref(userChannel string) string {
	ref := r.Module().String()
	if userChannel != "" {
		ref += "@" + userChannel
	}
	return ref
}
