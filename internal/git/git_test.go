package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testCtx() context.Context {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	return logger.WithContext(context.Background())
}

func TestBuildServiceAnnouncement(t *testing.T) {
	b, err := buildServiceAnnouncement(ServiceUploadPack)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := string(b)
	want := "001e# service=git-upload-pack\n0000"
	if got != want {
		t.Fatalf("unexpected announcement.\n got: %q\nwant: %q", got, want)
	}
	if _, err := buildServiceAnnouncement("git-evil-pack"); err == nil {
		t.Fatal("expected error for unsupported service")
	}
}

func TestEnsureBareRepo(t *testing.T) {
	ctx := testCtx()
	s := NewStorage(t.TempDir())
	if err := s.EnsureBareRepo(ctx, "hello"); err != nil {
		t.Fatalf("EnsureBareRepo error: %v", err)
	}
	repodir := s.RepoDir("hello")
	// bare repo should have HEAD file
	if _, err := os.Stat(filepath.Join(repodir, "HEAD")); err != nil {
		t.Fatalf("expected HEAD in repo: %v", err)
	}
	if _, err := os.Stat(filepath.Join(repodir, "hooks", "post-receive")); err != nil {
		t.Fatalf("expected post-receive hook: %v", err)
	}
	if !s.IsRepoExist("hello") {
		t.Fatal("IsRepoExist = false after init")
	}
	if err := s.EnsureBareRepo(ctx, "hello"); err != nil {
		t.Fatalf("second EnsureBareRepo error: %v", err)
	}
}

func TestHookScriptUsesAbsoluteDataDir(t *testing.T) {
	ctx := testCtx()
	t.Chdir(t.TempDir())

	// relative data dir, as `serve --data-dir ./data` passes it
	s := NewStorage("./data")
	if err := s.EnsureBareRepo(ctx, "hello"); err != nil {
		t.Fatalf("EnsureBareRepo error: %v", err)
	}

	script, err := os.ReadFile(filepath.Join(s.RepoDir("hello"), "hooks", "post-receive"))
	if err != nil {
		t.Fatalf("read hook script: %v", err)
	}
	fields := strings.Fields(string(script))
	dataDir := ""
	for i, f := range fields {
		if f == "--data-dir" && i+1 < len(fields) {
			dataDir = fields[i+1]
		}
	}
	if dataDir == "" {
		t.Fatalf("no --data-dir in hook script:\n%s", script)
	}
	// the hook runs with cwd inside the bare repo
	if !filepath.IsAbs(dataDir) {
		t.Errorf("hook data dir is relative: %q", dataDir)
	}
}

func TestCloneAtRevision(t *testing.T) {
	ctx := testCtx()
	src := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = src
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test",
		)
		var out bytes.Buffer
		cmd.Stdout, cmd.Stderr = &out, &out
		if err := cmd.Run(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out.String())
		}
	}

	run("init", "-b", "main", ".")
	if err := os.WriteFile(filepath.Join(src, "index.js"), []byte("// v1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-m", "v1")

	sha := func() string {
		cmd := exec.Command("git", "-C", src, "rev-parse", "HEAD")
		out, err := cmd.Output()
		if err != nil {
			t.Fatalf("rev-parse: %v", err)
		}
		return string(bytes.TrimSpace(out))
	}()

	dst := filepath.Join(t.TempDir(), "work")
	if _, err := CloneAtRevision(ctx, src, sha, dst); err != nil {
		t.Fatalf("CloneAtRevision error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "index.js")); err != nil {
		t.Fatalf("expected checked out file: %v", err)
	}

	if out, err := CloneAtRevision(ctx, src, "deadbeef", filepath.Join(t.TempDir(), "bad")); err == nil {
		t.Fatalf("expected checkout failure, output: %s", out)
	}
}
