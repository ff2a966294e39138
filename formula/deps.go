package formula

import (
	"path/filepath"
	"slices"

	"github.com/goplus/ceres-recipe/pkgs/mod/module"
)

// PackageName is the name ceres-solver is published under.
const PackageName = "ceres_solver"

// Dependency names handled by the recipe. The set is flat and fixed.
const (
	DepGlog        = "glog"
	DepEigen       = "eigen"
	DepSuiteSparse = "suitesparse"
	DepOpenBLAS    = "openblas"
)

// DependencyLocation holds the install facts of one dependency as reported
// by the external package manager. It is read-only to the recipe.
type DependencyLocation struct {
	Name        string
	Version     string
	RootPath    string
	IncludeDirs []string // relative to RootPath
	LibDirs     []string // relative to RootPath
	Libs        []string // produced library names
	Shared      *bool    // linkage, nil when the provider did not say
}

// IncludeDir returns the first include directory, or <root>/include.
func (d DependencyLocation) IncludeDir() string {
	if len(d.IncludeDirs) > 0 {
		return filepath.Join(d.RootPath, d.IncludeDirs[0])
	}
	return filepath.Join(d.RootPath, "include")
}

// LibDir returns the first library directory, or <root>/lib.
func (d DependencyLocation) LibDir() string {
	if len(d.LibDirs) > 0 {
		return filepath.Join(d.RootPath, d.LibDirs[0])
	}
	return filepath.Join(d.RootPath, "lib")
}

// Linkage returns the dependency's linkage, or def if unknown.
func (d DependencyLocation) Linkage(def Linkage) Linkage {
	if d.Shared == nil {
		return def
	}
	return LinkageOf(*d.Shared)
}

// LocationProvider supplies dependency locations by name.
type LocationProvider interface {
	Location(name string) (DependencyLocation, bool)
}

// Locations is an in-memory LocationProvider.
type Locations map[string]DependencyLocation

// Location implements LocationProvider.
func (l Locations) Location(name string) (DependencyLocation, bool) {
	loc, ok := l[name]
	return loc, ok
}

// -----------------------------------------------------------------------------

// ModuleDeps collects the declared requirements of the package.
type ModuleDeps struct {
	reqs []Requirement
}

// Require declares that the package depends on name within r.
func (p *ModuleDeps) Require(name string, r Range) {
	p.reqs = append(p.reqs, Requirement{Name: name, Range: r})
}

// Requirements returns the declared requirements in declaration order.
func (p *ModuleDeps) Requirements() []Requirement {
	return slices.Clone(p.reqs)
}

// Deps returns the requirements as module versions whose Version is the
// range expression.
func (p *ModuleDeps) Deps() []module.Version {
	deps := make([]module.Version, len(p.reqs))
	for i, r := range p.reqs {
		deps[i] = r.Module()
	}
	return deps
}

// Lookup returns the requirement declared for name.
func (p *ModuleDeps) Lookup(name string) (Requirement, bool) {
	for _, r := range p.reqs {
		if r.Name == name {
			return r, true
		}
	}
	return Requirement{}, false
}
