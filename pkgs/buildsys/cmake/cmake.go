// Package cmake wraps the cmake configure/build/install workflow.
package cmake

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/goplus/ceres-recipe/pkgs/buildsys"
)

// NoDevWarnings silences warnings meant for project developers.
const NoDevWarnings = "-Wno-dev"

// Runner executes one external command. env holds overrides on top of the
// process environment.
type Runner func(ctx context.Context, name string, args []string, env map[string]string) error

// CMake drives CMake-based builds.
type CMake struct {
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	toolchain  string
	defines    *buildsys.Definitions
	env        map[string]string

	stdout, stderr io.Writer
	run            Runner
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New returns a ready-to-use CMake.
func New(sourceDir, buildDir, installDir string) *CMake {
	c := &CMake{
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		defines:    buildsys.NewDefinitions(),
		env:        map[string]string{},
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
	c.run = c.runCommand
	return c
}

// WithRunner replaces the command runner, mostly for tests.
func (c *CMake) WithRunner(run Runner) *CMake {
	c.run = run
	return c
}

// WithOutput redirects the output of cmake itself.
func (c *CMake) WithOutput(stdout, stderr io.Writer) *CMake {
	c.stdout, c.stderr = stdout, stderr
	return c
}

// Source overrides the source directory.
func (c *CMake) Source(dir string) { c.sourceDir = dir }

// InstallDir sets the install prefix.
func (c *CMake) InstallDir(dir string) { c.installDir = dir }

// Generator sets the CMake generator (e.g. "Ninja", "Unix Makefiles").
func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

// BuildType sets CMAKE_BUILD_TYPE (e.g. "Release", "Debug").
func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

// Toolchain sets CMAKE_TOOLCHAIN_FILE.
func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) *CMake {
	c.defines.Override(buildsys.Str(key, value))
	return c
}

// DefineBool adds a -D<key>:BOOL=ON/OFF definition.
func (c *CMake) DefineBool(key string, value bool) *CMake {
	c.defines.Override(buildsys.Bool(key, value))
	return c
}

// Apply copies defs into the configure definitions, replacing keys that
// were already defined.
func (c *CMake) Apply(defs *buildsys.Definitions) {
	if defs == nil {
		return
	}
	for _, d := range defs.All() {
		c.defines.Override(d)
	}
}

// Env sets an environment variable for every cmake invocation.
func (c *CMake) Env(key, value string) {
	c.env[key] = value
}

// Use makes the dependency installed at root visible to CMake and the
// compilers through the environment of the cmake invocations.
func (c *CMake) Use(root string) {
	includeDir := filepath.Join(root, "include")
	libDir := filepath.Join(root, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")

	if _, err := os.Stat(pkgconfigDir); err == nil {
		c.prependPath("PKG_CONFIG_PATH", pkgconfigDir)
	}
	c.prependPath("CMAKE_PREFIX_PATH", root)
	if _, err := os.Stat(includeDir); err == nil {
		c.prependPath("CMAKE_INCLUDE_PATH", includeDir)
	}
	if _, err := os.Stat(libDir); err == nil {
		c.prependPath("CMAKE_LIBRARY_PATH", libDir)
	}
}

// Configure runs "cmake -S <source> -B <build>" with all configured options.
// Extra args are appended at the end, followed by -Wno-dev.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	return c.run(ctx, "cmake", c.ConfigureArgs(args...), c.env)
}

// ConfigureArgs returns the argument list Configure passes to cmake.
func (c *CMake) ConfigureArgs(args ...string) []string {
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.toolchain != "" {
		c.Define("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, Args(c.defines)...)
	cmakeArgs = append(cmakeArgs, args...)
	return append(cmakeArgs, NoDevWarnings)
}

// Build runs "cmake --build <build>" with optional extra arguments.
func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmakeArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, "cmake", cmakeArgs, c.env)
}

// Install runs "cmake --install <build>" with optional extra arguments.
func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmakeArgs := []string{"--install", c.buildDir}
	if c.buildType != "" {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}
	if c.installDir != "" {
		cmakeArgs = append(cmakeArgs, "--prefix", c.installDir)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, "cmake", cmakeArgs, c.env)
}

// OutputDir returns installDir if set, otherwise buildDir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

// Args serializes defs in cmake command-line syntax, one argument per
// definition: -D<key>:<type>=<value>, or -D<key>=<value> when untyped.
func Args(defs *buildsys.Definitions) []string {
	if defs == nil || defs.Len() == 0 {
		return nil
	}
	all := defs.All()
	args := make([]string, 0, len(all))
	for _, d := range all {
		if d.Type != buildsys.Untyped {
			args = append(args, "-D"+d.Key+":"+d.Type+"="+d.Value)
			continue
		}
		args = append(args, "-D"+d.Key+"="+d.Value)
	}
	return args
}

func (c *CMake) runCommand(ctx context.Context, name string, args []string, env map[string]string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	if len(env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), env)
	}
	return cmd.Run()
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// prependPath prepends value to a PATH-style variable, starting from the
// process environment the first time the key is touched.
func (c *CMake) prependPath(key, value string) {
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	cur, ok := c.env[key]
	if !ok {
		cur = os.Getenv(key)
	}
	if cur != "" {
		value += sep + cur
	}
	c.env[key] = value
}
