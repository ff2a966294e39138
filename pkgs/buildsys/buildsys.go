package buildsys

import "context"

// BuildSystem captures the capabilities the recipe needs from an external
// build-system generator. Every lifecycle call is a blocking external
// invocation; a failure is returned as is and never retried.
type BuildSystem interface {
	// Use makes a dependency install root visible to the build.
	Use(root string)

	// Basic paths.
	Source(dir string)
	InstallDir(dir string)

	// Environment helper.
	Env(key, val string)

	// Apply adds a definition set to the configure step.
	Apply(defs *Definitions)

	// Lifecycle.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}
