package env

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goplus/ceres-recipe/pkgs/mod/module"
)

// WorkDir returns the default working directory of the recipe.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".ceres-recipe"), nil
}

// Dirs are the directories one recipe run works in.
type Dirs struct {
	Source  string // shared by every configuration of a version
	Build   string
	Package string
}

// DirsFor lays out the directories of mod under workDir, in
// <workDir>/<name>/<version>. config identifies the configuration (platform
// and options); each distinct config gets its own build and package
// directories.
func DirsFor(workDir string, mod module.Version, config string) (Dirs, error) {
	rel, err := module.EscapePath(mod.String())
	if err != nil {
		return Dirs{}, fmt.Errorf("failed to escape %s: %w", mod, err)
	}
	id := ConfigID(config)
	base := filepath.Join(workDir, rel)
	return Dirs{
		Source:  filepath.Join(base, "src"),
		Build:   filepath.Join(base, "build-"+id),
		Package: filepath.Join(base, "package-"+id),
	}, nil
}

// ConfigID returns a short stable identifier for config.
func ConfigID(config string) string {
	sum := sha256.Sum256([]byte(config))
	return hex.EncodeToString(sum[:6])
}
