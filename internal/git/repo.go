package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/yz4230/shipci/internal/utils"
)

// Storage manages the bare repositories the service hosts and the
// working trees pipeline runs check out from them. Repositories live
// under <dataDir>/repositories.
type Storage interface {
	RepoDir(reponame string) string
	IsRepoExist(reponame string) bool
	EnsureBareRepo(ctx context.Context, reponame string) error
	InitBareRepo(ctx context.Context, reponame string) error
	CloneAtRevision(ctx context.Context, reponame, sha, dst string) (string, error)
}

type storageImpl struct {
	dataDir string
}

func NewStorage(dataDir string) Storage {
	return &storageImpl{dataDir: dataDir}
}

func (g *storageImpl) RepoDir(reponame string) string {
	return lo.Must(filepath.Abs(filepath.Join(g.dataDir, "repositories", utils.EnsureSuffix(reponame, ".git"))))
}

func (g *storageImpl) IsRepoExist(reponame string) bool {
	_, err := os.Stat(g.RepoDir(reponame))
	return err == nil
}

// EnsureBareRepo initializes the bare repository if it does not exist.
func (g *storageImpl) EnsureBareRepo(ctx context.Context, reponame string) error {
	if g.IsRepoExist(reponame) {
		return nil
	}
	return g.InitBareRepo(ctx, reponame)
}

func (g *storageImpl) InitBareRepo(ctx context.Context, reponame string) error {
	log := zerolog.Ctx(ctx)
	repodir := g.RepoDir(reponame)
	if err := os.MkdirAll(repodir, os.ModePerm); err != nil {
		return fmt.Errorf("create repo dir: %w", err)
	}
	if err := exec.CommandContext(ctx, "git", "init", "--bare", repodir).Run(); err != nil {
		return fmt.Errorf("init bare repo: %w", err)
	}
	if err := installHooks(repodir, g.dataDir); err != nil {
		return fmt.Errorf("install hooks: %w", err)
	}
	log.Info().Str("dir", repodir).Msg("initialized bare git repository")
	return nil
}

// CloneAtRevision materializes the source tree at the given commit into
// dst. Returns the combined git output for the run record.
func (g *storageImpl) CloneAtRevision(ctx context.Context, reponame, sha, dst string) (string, error) {
	repodir := g.RepoDir(reponame)
	return CloneAtRevision(ctx, repodir, sha, dst)
}

// CloneAtRevision clones repodir into dst and detaches at sha.
func CloneAtRevision(ctx context.Context, repodir, sha, dst string) (string, error) {
	log := zerolog.Ctx(ctx)
	out, err := exec.CommandContext(ctx, "git", "clone", "--quiet", repodir, dst).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git clone: %w", err)
	}
	log.Debug().Str("repo", repodir).Str("sha", sha).Msg("cloned repository")
	co, err := exec.CommandContext(ctx, "git", "-C", dst, "checkout", "--quiet", "--detach", sha).CombinedOutput()
	out = append(out, co...)
	if err != nil {
		return string(out), fmt.Errorf("git checkout %s: %w", sha, err)
	}
	return string(out), nil
}

// installHooks writes the post-receive hook that re-invokes this binary
// so pushes to the target branch trigger a pipeline run. git runs the
// hook with cwd inside the bare repository, so the data dir must be
// embedded as an absolute path.
func installHooks(repodir, dataDir string) error {
	hooksDir := filepath.Join(repodir, "hooks")
	if err := os.MkdirAll(hooksDir, os.ModePerm); err != nil {
		return fmt.Errorf("create hooks dir: %w", err)
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	scriptPath := filepath.Join(hooksDir, "post-receive")
	scriptContent := fmt.Sprintf("#!/bin/sh\nexec %s hook post-receive --data-dir %s\n", os.Args[0], absDataDir)
	if err := os.WriteFile(scriptPath, []byte(scriptContent), os.ModePerm); err != nil {
		return fmt.Errorf("write post-receive hook: %w", err)
	}
	return nil
}
