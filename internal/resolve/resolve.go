// Package resolve derives dependency constraints and the normalized option
// set for one ceres-solver package version.
//
// Normalization happens in two steps. Resolve handles everything decidable
// from the raw options and the platform. Resolution.Normalize finishes once
// the eigen version picked by the package manager is known, since the
// cxx11 option depends on it.
package resolve

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/mod/semver"

	"github.com/goplus/ceres-recipe/formula"
)

const (
	// Releases before this one cannot build against eigen 3.3.4 and later.
	eigenOpenRangeSince = "1.13.0"

	eigenLowest       = "3.2.0"
	eigenBoundedBelow = "3.3.4"

	// Eigen at or below this version breaks when compiled as C++11.
	eigenCXX11Max = "3.2.0"

	glogAbove        = "0.3.1"
	suiteSparseLeast = "4.5.0"
	openBLASLeast    = "0.2.20"
)

var errNotTriple = errors.New("version is not major.minor.patch")

var versionRE = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:[-+].*)?$`)

// PackageVersion is a parsed "major.minor.patch" ceres-solver version.
type PackageVersion struct {
	Major, Minor, Patch int
	raw                 string
}

// ParseVersion parses version, failing with ErrConfiguration unless it has
// the form major.minor.patch (optionally followed by a pre-release or build
// suffix).
func ParseVersion(version string) (PackageVersion, error) {
	m := versionRE.FindStringSubmatch(version)
	if m == nil || formula.Canonical(version) == "" {
		return PackageVersion{}, &formula.Error{Op: "resolve", Subject: version, Kind: formula.ErrConfiguration,
			Err: errNotTriple}
	}
	v := PackageVersion{raw: version}
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	v.Patch, _ = strconv.Atoi(m[3])
	return v, nil
}

func (v PackageVersion) String() string { return v.raw }

// Compare compares v with another bare version string using semver order.
func (v PackageVersion) Compare(other string) int {
	return semver.Compare(formula.Canonical(v.raw), formula.Canonical(other))
}

// Series returns the release series used to tell packaging eras apart: the
// minor number for 1.x releases (9 for 1.9.0, 13 for 1.13.0). Releases from
// 2.0 on all share the newest layout and report 100*major+minor.
func (v PackageVersion) Series() int {
	if v.Major <= 1 {
		return v.Minor
	}
	return 100*v.Major + v.Minor
}

// -----------------------------------------------------------------------------

// Resolution is the outcome of resolving a package version, option set and
// platform. It is immutable.
type Resolution struct {
	Version  PackageVersion
	Platform formula.Platform
	Deps     formula.ModuleDeps

	options formula.NormalizedOptions
}

// Options returns the options normalized against the platform only.
func (r Resolution) Options() formula.NormalizedOptions {
	return r.options
}

// EigenRange returns the range declared for eigen.
func (r Resolution) EigenRange() formula.Range {
	req, _ := r.Deps.Lookup(formula.DepEigen)
	return req.Range
}

// Resolve parses version, validates raw and derives the dependency
// constraints and platform-normalized options. raw is merged over the recipe
// defaults; it is never modified.
func Resolve(version string, raw formula.OptionSet, plat formula.Platform) (Resolution, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return Resolution{}, err
	}
	if err := raw.Validate(); err != nil {
		return Resolution{}, err
	}
	opts := formula.NewNormalizedOptions(formula.DefaultOptions().Merge(raw))

	if plat.IsMSVC() {
		opts = opts.Without(formula.OptFPIC, "not used by "+plat.Compiler)
		opts = opts.Without(formula.OptOpenBLAS, "openblas is not resolvable with "+plat.Compiler)
	}

	res := Resolution{Version: v, Platform: plat, options: opts}
	res.Deps.Require(formula.DepGlog, formula.Above(glogAbove))
	res.Deps.Require(formula.DepEigen, EigenRange(v))
	if opts.Enabled(formula.OptSuiteSparse) || opts.Enabled(formula.OptCXSparse) {
		res.Deps.Require(formula.DepSuiteSparse, formula.AtLeast(suiteSparseLeast))
	}
	if opts.Enabled(formula.OptOpenBLAS) {
		res.Deps.Require(formula.DepOpenBLAS, formula.AtLeast(openBLASLeast))
	}
	return res, nil
}

// EigenRange selects the eigen constraint for a package version: bounded
// below 1.13.0, open-ended from it on.
func EigenRange(v PackageVersion) formula.Range {
	if v.Compare(eigenOpenRangeSince) < 0 {
		return formula.Between(eigenLowest, eigenBoundedBelow)
	}
	return formula.AtLeast(eigenLowest)
}

// Normalize completes option normalization with the eigen version the
// package manager resolved. It fails with ErrConfiguration when that version
// is not a valid version or lies outside the declared eigen range.
func (r Resolution) Normalize(eigenVersion string) (formula.NormalizedOptions, error) {
	if formula.Canonical(eigenVersion) == "" {
		return formula.NormalizedOptions{}, &formula.Error{Op: "resolve", Subject: formula.DepEigen,
			Kind: formula.ErrConfiguration, Err: fmt.Errorf("invalid version %q", eigenVersion)}
	}
	if rng := r.EigenRange(); !rng.Allows(eigenVersion) {
		return formula.NormalizedOptions{}, &formula.Error{Op: "resolve", Subject: formula.DepEigen,
			Kind: formula.ErrConfiguration, Err: fmt.Errorf("version %s does not satisfy %s", eigenVersion, rng)}
	}
	opts := r.options
	if semver.Compare(formula.Canonical(eigenVersion), formula.Canonical(eigenCXX11Max)) <= 0 {
		opts = opts.Without(formula.OptCXX11, "eigen "+eigenVersion+" does not build as C++11")
	}
	return opts, nil
}
