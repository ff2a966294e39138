package formula

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
)

// Option names understood by the ceres recipe.
const (
	OptShared      = "shared"
	OptFPIC        = "fPIC"
	OptCXX11       = "cxx11"
	OptSuiteSparse = "suitesparse"
	OptCXSparse    = "cxsparse"
	OptCustomBLAS  = "custom_blas"
	OptOpenBLAS    = "openblas"
)

var errUnknownOption = errors.New("unknown option")

var knownOptions = []string{
	OptShared,
	OptFPIC,
	OptCXX11,
	OptSuiteSparse,
	OptCXSparse,
	OptCustomBLAS,
	OptOpenBLAS,
}

// KnownOption reports whether name is a recipe option.
func KnownOption(name string) bool {
	return slices.Contains(knownOptions, name)
}

// LookupOption returns the canonical spelling of name, ignoring case
// ("fpic" is "fPIC").
func LookupOption(name string) (string, bool) {
	for _, known := range knownOptions {
		if strings.EqualFold(known, name) {
			return known, true
		}
	}
	return "", false
}

// OptionSet maps option names to their user-chosen values.
type OptionSet map[string]bool

// DefaultOptions returns the recipe defaults.
func DefaultOptions() OptionSet {
	return OptionSet{
		OptShared:      true,
		OptFPIC:        true,
		OptCXX11:       true,
		OptSuiteSparse: false,
		OptCXSparse:    false,
		OptCustomBLAS:  true,
		OptOpenBLAS:    false,
	}
}

// Merge returns a copy of the defaults overridden by s.
func (s OptionSet) Merge(over OptionSet) OptionSet {
	out := maps.Clone(s)
	if out == nil {
		out = OptionSet{}
	}
	maps.Copy(out, over)
	return out
}

// Validate rejects option names the recipe does not know.
func (s OptionSet) Validate() error {
	var unknown []string
	for name := range s {
		if !KnownOption(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &Error{Op: "options", Subject: strings.Join(unknown, ","), Kind: ErrConfiguration,
		Err: errUnknownOption}
}

// String renders the set as sorted "name=value" pairs.
func (s OptionSet) String() string {
	return formatOptions(s)
}

func formatOptions(values map[string]bool) string {
	names := slices.Sorted(maps.Keys(values))
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%t", name, values[name])
	}
	return strings.Join(parts, ",")
}

// -----------------------------------------------------------------------------

// RemovedOption records an option dropped during normalization.
type RemovedOption struct {
	Name   string
	Reason string
}

// NormalizedOptions is the option set after platform and dependency
// constraints were applied. Removed options are absent: querying them
// reports false rather than failing. The zero value is an empty set.
type NormalizedOptions struct {
	values  map[string]bool
	removed []RemovedOption
}

// NewNormalizedOptions copies values into an immutable set.
func NewNormalizedOptions(values OptionSet) NormalizedOptions {
	return NormalizedOptions{values: maps.Clone(map[string]bool(values))}
}

// Has reports whether name survived normalization.
func (o NormalizedOptions) Has(name string) bool {
	_, ok := o.values[name]
	return ok
}

// Enabled reports whether name is present and true.
func (o NormalizedOptions) Enabled(name string) bool {
	return o.values[name]
}

// Names returns the present option names, sorted.
func (o NormalizedOptions) Names() []string {
	return slices.Sorted(maps.Keys(o.values))
}

// Removed returns the options dropped so far, in removal order.
func (o NormalizedOptions) Removed() []RemovedOption {
	return slices.Clone(o.removed)
}

// Without returns a copy of o with name removed. Removing an absent option
// returns o unchanged.
func (o NormalizedOptions) Without(name, reason string) NormalizedOptions {
	if !o.Has(name) {
		return o
	}
	values := maps.Clone(o.values)
	delete(values, name)
	removed := make([]RemovedOption, len(o.removed), len(o.removed)+1)
	copy(removed, o.removed)
	return NormalizedOptions{
		values:  values,
		removed: append(removed, RemovedOption{Name: name, Reason: reason}),
	}
}

func (o NormalizedOptions) String() string {
	return formatOptions(o.values)
}
