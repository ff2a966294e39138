package formula

import (
	"runtime"
	"strings"
)

// Linkage is the library build mode of a package or dependency.
type Linkage string

const (
	Shared Linkage = "shared"
	Static Linkage = "static"
)

// LinkageOf maps the "shared" option value to a Linkage.
func LinkageOf(shared bool) Linkage {
	if shared {
		return Shared
	}
	return Static
}

// Platform describes the settings a recipe invocation builds for.
// OS and Compiler use the package manager's spelling ("Windows", "Linux",
// "Macos"; "gcc", "clang", "apple-clang", "Visual Studio").
type Platform struct {
	OS        string
	Compiler  string
	Arch      string
	BuildType string
}

// IsWindows reports whether p targets Windows.
func (p Platform) IsWindows() bool {
	return strings.EqualFold(p.OS, "Windows")
}

// IsMSVC reports whether p uses the Microsoft toolchain.
func (p Platform) IsMSVC() bool {
	return strings.EqualFold(p.Compiler, "Visual Studio") || strings.EqualFold(p.Compiler, "msvc")
}

// String returns "os/arch (compiler)".
func (p Platform) String() string {
	s := p.OS
	if p.Arch != "" {
		s += "/" + p.Arch
	}
	if p.Compiler != "" {
		s += " (" + p.Compiler + ")"
	}
	return s
}

// HostPlatform returns the platform of the running process with the
// toolchain conventionally used there.
func HostPlatform() Platform {
	p := Platform{Arch: hostArch(runtime.GOARCH), BuildType: "Release"}
	switch runtime.GOOS {
	case "windows":
		p.OS, p.Compiler = "Windows", "Visual Studio"
	case "darwin":
		p.OS, p.Compiler = "Macos", "apple-clang"
	case "linux":
		p.OS, p.Compiler = "Linux", "gcc"
	default:
		p.OS, p.Compiler = runtime.GOOS, "gcc"
	}
	return p
}

func hostArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		return "armv8"
	}
	return goarch
}
