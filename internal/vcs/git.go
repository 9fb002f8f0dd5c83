// Package vcs captures version-control provenance for tuning runs. A run
// result records which commit of the project the pipeline was tuned against,
// so historical scores stay attributable after the code moves on.
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

// Metadata identifies the repository state at run start.
type Metadata struct {
	Name   string
	VCS    string
	Commit string
	Branch string
	Dirty  bool
}

// Repo is a discovered repository root plus the runner used to query it.
type Repo struct {
	Root   string
	runner gitRunner
}

type gitRunner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// systemGit shells out to the git binary on PATH.
type systemGit struct{}

func (systemGit) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = "no stderr"
		}
		return "", fmt.Errorf("git %s: %w (%s)", strings.Join(args, " "), err, detail)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Client wraps a git runner; the zero value is not usable, construct with
// NewClient.
type Client struct {
	runner gitRunner
}

// NewClient returns a Client backed by the given runner, or the system git
// binary when runner is nil.
func NewClient(runner gitRunner) Client {
	if runner == nil {
		runner = systemGit{}
	}
	return Client{runner: runner}
}

var defaultClient = NewClient(nil)

// DiscoverRepoRoot resolves the enclosing git worktree root for startDir
// (or the working directory when startDir is empty).
func DiscoverRepoRoot(ctx context.Context, startDir string) (string, error) {
	return defaultClient.DiscoverRepoRoot(ctx, startDir)
}

// Discover locates the repository containing startDir.
func Discover(ctx context.Context, startDir string) (Repo, error) {
	return defaultClient.Discover(ctx, startDir)
}

func (c Client) DiscoverRepoRoot(ctx context.Context, startDir string) (string, error) {
	dir := strings.TrimSpace(startDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}
	root, err := c.runner.Run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("discover git root: %w", err)
	}
	return root, nil
}

func (c Client) Discover(ctx context.Context, startDir string) (Repo, error) {
	root, err := c.DiscoverRepoRoot(ctx, startDir)
	if err != nil {
		return Repo{}, err
	}
	return Repo{Root: root, runner: c.runner}, nil
}

// Metadata reads the repository name, HEAD commit, branch and dirty state.
func (r Repo) Metadata(ctx context.Context) (Metadata, error) {
	if strings.TrimSpace(r.Root) == "" {
		return Metadata{}, fmt.Errorf("repo root is empty")
	}
	runner := r.runner
	if runner == nil {
		runner = systemGit{}
	}
	read := func(label string, args ...string) (string, error) {
		out, err := runner.Run(ctx, r.Root, args...)
		if err != nil {
			return "", fmt.Errorf("%s: %w", label, err)
		}
		return out, nil
	}
	commit, err := read("resolve HEAD", "rev-parse", "HEAD")
	if err != nil {
		return Metadata{}, err
	}
	branch, err := read("resolve branch", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return Metadata{}, err
	}
	status, err := read("check dirty state", "status", "--porcelain")
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Name:   filepath.Base(r.Root),
		VCS:    "git",
		Commit: commit,
		Branch: branch,
		Dirty:  status != "",
	}, nil
}
