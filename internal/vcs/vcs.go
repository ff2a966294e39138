package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// VCS defines the source operations the recipe needs.
type VCS interface {
	// Sync ensures the local repo exists and is at the specified ref.
	// ref can be branch, tag, or commit hash.
	// If dir doesn't exist, it is created and initialized.
	// If dir exists, fetches updates and checks out the ref.
	Sync(ctx context.Context, remote, ref, dir string) error

	// Apply applies a unified diff to the working tree at dir.
	Apply(ctx context.Context, dir string, patch []byte) error

	// Tags returns all tags from the remote repository.
	Tags(ctx context.Context, remote string) ([]string, error)
}

// execFunc runs name with args in dir, feeding stdin, and returns stdout.
type execFunc func(ctx context.Context, dir string, stdin []byte, name string, args ...string) (string, error)

// gitVCS implements VCS using git.
type gitVCS struct {
	git  string
	exec execFunc
}

// GitOption configures gitVCS.
type GitOption func(*gitVCS)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitVCS) {
		g.git = path
	}
}

// NewGitVCS creates a new git VCS instance.
func NewGitVCS(opts ...GitOption) VCS {
	g := &gitVCS{git: "git", exec: runCommand}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitVCS) ensureInit(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		return g.run(ctx, dir, nil, "init", "--quiet")
	}
	return nil
}

func (g *gitVCS) Sync(ctx context.Context, remote, ref, dir string) error {
	if err := g.ensureInit(ctx, dir); err != nil {
		return err
	}
	if err := g.fetch(ctx, remote, dir, ref); err != nil {
		return err
	}
	return g.checkout(ctx, dir, "FETCH_HEAD")
}

func (g *gitVCS) fetch(ctx context.Context, remote, dir, ref string) error {
	args := []string{"fetch", "--depth", "1", remote, ref}
	if err := g.run(ctx, dir, nil, args...); err != nil {
		return fmt.Errorf("fetch %s: %w", ref, err)
	}
	return nil
}

func (g *gitVCS) checkout(ctx context.Context, dir, ref string) error {
	if err := g.run(ctx, dir, nil, "checkout", "--force", "--quiet", ref); err != nil {
		return fmt.Errorf("checkout %s: %w", ref, err)
	}
	return nil
}

func (g *gitVCS) Apply(ctx context.Context, dir string, patch []byte) error {
	if err := g.run(ctx, dir, patch, "apply", "--whitespace=nowarn", "-"); err != nil {
		return fmt.Errorf("apply patch: %w", err)
	}
	return nil
}

func (g *gitVCS) Tags(ctx context.Context, remote string) ([]string, error) {
	output, err := g.exec(ctx, "", nil, g.git, "ls-remote", "--tags", "--refs", remote)
	if err != nil {
		return nil, fmt.Errorf("list remote tags: %w", err)
	}

	output = strings.TrimSpace(output)
	if output == "" {
		return nil, nil
	}

	var tags []string
	for line := range strings.SplitSeq(output, "\n") {
		// format: <hash>\trefs/tags/<tag>
		_, ref, ok := strings.Cut(line, "\t")
		if ok {
			tags = append(tags, strings.TrimPrefix(ref, "refs/tags/"))
		}
	}
	return tags, nil
}

func (g *gitVCS) run(ctx context.Context, dir string, stdin []byte, args ...string) error {
	_, err := g.exec(ctx, dir, stdin, g.git, args...)
	return err
}

func runCommand(ctx context.Context, dir string, stdin []byte, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s", msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
