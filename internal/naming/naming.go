// Package naming derives conventional library file names per platform.
package naming

import (
	"strings"

	"github.com/goplus/ceres-recipe/formula"
)

const (
	unixPrefix     = "lib"
	sharedExt      = ".so"
	staticExt      = ".a"
	windowsLibExt  = ".lib"
	windowsOSLabel = "windows"
)

// LibraryFileName returns the file name the linker looks for when linking
// against library name on os with the given linkage.
//
// Windows always links through a ".lib" (import library or static archive)
// with no prefix. Everything else uses "lib<name>.so" or "lib<name>.a".
func LibraryFileName(name, os string, linkage formula.Linkage) string {
	if strings.EqualFold(os, windowsOSLabel) {
		return name + windowsLibExt
	}
	if linkage == formula.Static {
		return unixPrefix + name + staticExt
	}
	return unixPrefix + name + sharedExt
}

// SharedObjectName returns "lib<name>.so" regardless of platform.
func SharedObjectName(name string) string {
	return unixPrefix + name + sharedExt
}
