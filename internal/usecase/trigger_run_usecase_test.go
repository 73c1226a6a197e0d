package usecase

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yz4230/shipci/internal/entity"
	"github.com/yz4230/shipci/internal/git"
	"github.com/yz4230/shipci/internal/pipeline"
	"github.com/yz4230/shipci/internal/repository"
)

type fakeBuilder struct {
	calls int
}

func (f *fakeBuilder) BuildImage(ctx context.Context, contextDir string, tags []string, labels map[string]string) (string, string, error) {
	f.calls++
	return "sha256:deadbeef", "build log\n", nil
}

type fakeRegistry struct {
	pushed []string
}

func (f *fakeRegistry) Login(ctx context.Context, host string, cred entity.Credential) (string, error) {
	return "session", nil
}

func (f *fakeRegistry) Push(ctx context.Context, ref, session string) (string, error) {
	f.pushed = append(f.pushed, ref)
	return "pushed\n", nil
}

func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test",
	)
	var out bytes.Buffer
	cmd.Stdout, cmd.Stderr = &out, &out
	if err := cmd.Run(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

// setupPushedRepo hosts a bare repo under dataDir and pushes one commit
// with the given pipeline config to its main branch. Returns the pushed
// SHA.
func setupPushedRepo(t *testing.T, storage git.Storage, reponame, pipelineYAML string) string {
	t.Helper()
	bare := storage.RepoDir(reponame)
	if err := os.MkdirAll(bare, 0o755); err != nil {
		t.Fatal(err)
	}
	gitRun(t, bare, "init", "--bare", ".")

	work := t.TempDir()
	gitRun(t, work, "init", "-b", "main", ".")
	if err := os.WriteFile(filepath.Join(work, "index.js"), []byte("// hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(work, "shipci.yml"), []byte(pipelineYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	gitRun(t, work, "add", ".")
	gitRun(t, work, "commit", "-m", "initial")
	gitRun(t, work, "push", bare, "HEAD:refs/heads/main")

	out, err := exec.Command("git", "-C", work, "rev-parse", "HEAD").Output()
	if err != nil {
		t.Fatalf("rev-parse: %v", err)
	}
	return string(bytes.TrimSpace(out))
}

func newTriggerUsecase(t *testing.T, dataDir string, fb *fakeBuilder, fr *fakeRegistry) (*triggerRunUsecaseImpl, repository.RunRepository, repository.RepositoryRepository) {
	t.Helper()
	db, err := repository.NewMemoryDB()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	repos := repository.NewRepositoryRepository(db)
	runs := repository.NewRunRepository(db)
	uc := &triggerRunUsecaseImpl{
		gitStorage:           git.NewStorage(dataDir),
		repositoryRepository: repos,
		runRepository:        runs,
		builder:              fb,
		registry:             fr,
		creds:                pipeline.StaticCredentialSource{Cred: entity.Credential{Username: "ci-bot", Token: "tok"}},
	}
	return uc, runs, repos
}

func testCtx() context.Context {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	return logger.WithContext(context.Background())
}

func TestTriggerRunSucceedsAndPersists(t *testing.T) {
	dataDir := t.TempDir()
	fb := &fakeBuilder{}
	fr := &fakeRegistry{}
	uc, runs, repos := newTriggerUsecase(t, dataDir, fb, fr)

	sha := setupPushedRepo(t, uc.gitStorage, "hello", "image: hello\ninstall: \"true\"\ntest: \"true\"\n")

	run, err := uc.Execute(testCtx(), TriggerRunInput{
		Reponame: "hello",
		Revision: entity.Revision{SHA: sha, Ref: "refs/heads/main"},
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if run.Status != entity.RunStatusSucceeded {
		t.Fatalf("Status = %q, failure: %s", run.Status, run.Failure)
	}
	if len(run.Stages) != 6 {
		t.Errorf("got %d stages; want 6", len(run.Stages))
	}
	if fb.calls != 1 {
		t.Errorf("builder calls = %d", fb.calls)
	}
	want := []string{"hello:" + sha, "hello:latest"}
	if strings.Join(fr.pushed, ",") != strings.Join(want, ",") {
		t.Errorf("pushed = %v; want %v", fr.pushed, want)
	}

	// the run row and the repo's latest SHA are persisted
	stored, err := runs.GetByID(testCtx(), run.ID)
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if stored.Status != entity.RunStatusSucceeded {
		t.Errorf("stored status = %q", stored.Status)
	}
	repo, err := repos.GetByName(testCtx(), "hello")
	if err != nil {
		t.Fatalf("load repo: %v", err)
	}
	if repo.LatestSHA != sha {
		t.Errorf("LatestSHA = %q; want %q", repo.LatestSHA, sha)
	}
}

func TestTriggerRunRecordsFailure(t *testing.T) {
	dataDir := t.TempDir()
	fb := &fakeBuilder{}
	fr := &fakeRegistry{}
	uc, runs, repos := newTriggerUsecase(t, dataDir, fb, fr)

	sha := setupPushedRepo(t, uc.gitStorage, "hello", "image: hello\ninstall: \"true\"\ntest: \"exit 1\"\n")

	run, err := uc.Execute(testCtx(), TriggerRunInput{
		Reponame: "hello",
		Revision: entity.Revision{SHA: sha, Ref: "refs/heads/main"},
	})
	if err == nil {
		t.Fatal("expected run failure")
	}
	if run == nil {
		t.Fatal("expected persisted run despite failure")
	}
	if !strings.HasPrefix(run.Failure, "TestFailure") {
		t.Errorf("Failure = %q", run.Failure)
	}
	if fb.calls != 0 {
		t.Errorf("image built despite test failure")
	}
	if len(fr.pushed) != 0 {
		t.Errorf("artifact published despite test failure: %v", fr.pushed)
	}

	stored, err := runs.GetByID(testCtx(), run.ID)
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if stored.Status != entity.RunStatusFailed {
		t.Errorf("stored status = %q", stored.Status)
	}

	// a failed run must not advance the released revision
	repo, err := repos.GetByName(testCtx(), "hello")
	if err != nil {
		t.Fatalf("load repo: %v", err)
	}
	if repo.LatestSHA == sha {
		t.Error("LatestSHA advanced on failed run")
	}
}
