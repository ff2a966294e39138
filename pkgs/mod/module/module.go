// Package module defines the module.Version type along with support code.
package module

import (
	"path/filepath"
)

// A Version identifies one package (or a requirement on one) by name and
// version. For requirements Version holds a range expression.
type Version struct {
	Path    string // package name, e.g. "ceres_solver" or "eigen"
	Version string // version ("1.13.0") or range ("[>=3.2.0]")
}

// String returns "path/version", the package manager's reference form.
func (v Version) String() string {
	if v.Version == "" {
		return v.Path
	}
	return v.Path + "/" + v.Version
}

// EscapePath returns the escaped form of the given module path as a valid
// file system path. It fails if the module path is invalid.
func EscapePath(path string) (escaped string, err error) {
	return filepath.Localize(path)
}
