package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yz4230/shipci/internal/entity"
)

func testCtx() context.Context {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	return logger.WithContext(context.Background())
}

type recordedStage struct {
	name entity.StageName
	err  error
	log  *[]entity.StageName
}

func (s *recordedStage) Name() entity.StageName { return s.name }

func (s *recordedStage) Execute(ctx context.Context, sc *StageContext) (string, error) {
	*s.log = append(*s.log, s.name)
	return "out:" + string(s.name), s.err
}

func TestOrchestratorRunsStagesInOrder(t *testing.T) {
	var calls []entity.StageName
	o := New(
		&recordedStage{name: entity.StageCheckout, log: &calls},
		&recordedStage{name: entity.StageInstall, log: &calls},
		&recordedStage{name: entity.StageTest, log: &calls},
	)
	run, err := o.Run(testCtx(), entity.Revision{SHA: "abc", Ref: "refs/heads/main"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if run.Status != entity.RunStatusSucceeded {
		t.Errorf("Status = %q", run.Status)
	}
	want := []entity.StageName{entity.StageCheckout, entity.StageInstall, entity.StageTest}
	if fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Errorf("call order = %v; want %v", calls, want)
	}
	for i, sr := range run.Stages {
		if sr.Status != entity.StageStatusPassed {
			t.Errorf("stage %d status = %q", i, sr.Status)
		}
	}
}

func TestOrchestratorFailFast(t *testing.T) {
	var calls []entity.StageName
	boom := errors.New("exit status 1")
	o := New(
		&recordedStage{name: entity.StageCheckout, log: &calls},
		&recordedStage{name: entity.StageTest, err: boom, log: &calls},
		&recordedStage{name: entity.StageBuild, log: &calls},
		&recordedStage{name: entity.StagePublish, log: &calls},
	)
	run, err := o.Run(testCtx(), entity.Revision{SHA: "abc"})
	if err == nil {
		t.Fatal("expected run failure")
	}
	var se *entity.StageError
	if !errors.As(err, &se) || se.Stage != entity.StageTest {
		t.Fatalf("error = %v; want StageError at test", err)
	}
	if run.Status != entity.RunStatusFailed {
		t.Errorf("Status = %q", run.Status)
	}
	if !strings.HasPrefix(run.Failure, "TestFailure") {
		t.Errorf("Failure = %q; want TestFailure prefix", run.Failure)
	}
	for _, name := range calls {
		if name == entity.StageBuild || name == entity.StagePublish {
			t.Errorf("stage %s executed after failure", name)
		}
	}
	if len(run.Stages) != 4 {
		t.Fatalf("got %d stage results; want 4", len(run.Stages))
	}
	if run.Stages[1].Status != entity.StageStatusFailed {
		t.Errorf("failed stage status = %q", run.Stages[1].Status)
	}
	for _, sr := range run.Stages[2:] {
		if sr.Status != entity.StageStatusSkipped {
			t.Errorf("stage %s status = %q; want skipped", sr.Stage, sr.Status)
		}
	}
}

// --- end-to-end over a real git work tree, docker faked out ---

type fakeBuilder struct {
	calls int
	tags  []string
	err   error
}

func (f *fakeBuilder) BuildImage(ctx context.Context, contextDir string, tags []string, labels map[string]string) (string, string, error) {
	f.calls++
	f.tags = tags
	if f.err != nil {
		return "", "build log\n", f.err
	}
	return "sha256:deadbeef", "build log\n", nil
}

type fakeRegistry struct {
	loginCalls int
	pushCalls  int
	pushed     []string
	loginErr   error
	pushErr    error
}

func (f *fakeRegistry) Login(ctx context.Context, host string, cred entity.Credential) (string, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return "session-token", nil
}

func (f *fakeRegistry) Push(ctx context.Context, ref, session string) (string, error) {
	f.pushCalls++
	f.pushed = append(f.pushed, ref)
	if f.pushErr != nil {
		return "push log\n", f.pushErr
	}
	return "pushed " + ref + "\n", nil
}

// initProject creates a committed project with the given pipeline
// config and returns the repo dir and head SHA.
func initProject(t *testing.T, pipelineYAML string) (string, string) {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) {
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
	}

	if err := os.WriteFile(filepath.Join(dir, "index.js"), []byte("// hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "shipci.yml"), []byte(pipelineYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	run("init", "-b", "main", ".")
	run("add", ".")
	run("commit", "-m", "initial")

	cmd := exec.Command("git", "-C", dir, "rev-parse", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("rev-parse: %v", err)
	}
	return dir, string(bytes.TrimSpace(out))
}

const passingConfig = `
image: hello
install: "true"
test: "true"
`

func TestFullRunSucceeds(t *testing.T) {
	repo, sha := initProject(t, passingConfig)
	fb := &fakeBuilder{}
	fr := &fakeRegistry{}
	creds := StaticCredentialSource{Cred: entity.Credential{Username: "ci-bot", Token: "tok-secret"}}

	o := New(DefaultStages(repo, "hello", fb, fr, creds)...)
	run, err := o.Run(testCtx(), entity.Revision{SHA: sha, Ref: "refs/heads/main"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if run.Status != entity.RunStatusSucceeded {
		t.Fatalf("Status = %q, failure: %s", run.Status, run.Failure)
	}

	wantOrder := []entity.StageName{
		entity.StageCheckout, entity.StageInstall, entity.StageTest,
		entity.StageBuild, entity.StageAuthenticate, entity.StagePublish,
	}
	if len(run.Stages) != len(wantOrder) {
		t.Fatalf("got %d stages; want %d", len(run.Stages), len(wantOrder))
	}
	for i, sr := range run.Stages {
		if sr.Stage != wantOrder[i] {
			t.Errorf("stage[%d] = %s; want %s", i, sr.Stage, wantOrder[i])
		}
		if sr.Status != entity.StageStatusPassed {
			t.Errorf("stage %s status = %q\noutput: %s", sr.Stage, sr.Status, sr.Output)
		}
	}

	wantTags := []string{"hello:" + sha, "hello:latest"}
	if fmt.Sprint(fb.tags) != fmt.Sprint(wantTags) {
		t.Errorf("built tags = %v; want %v", fb.tags, wantTags)
	}
	if fmt.Sprint(fr.pushed) != fmt.Sprint(wantTags) {
		t.Errorf("pushed = %v; want %v", fr.pushed, wantTags)
	}
}

func TestTestFailureHaltsBeforeBuild(t *testing.T) {
	repo, sha := initProject(t, `
image: hello
install: "true"
test: "exit 1"
`)
	fb := &fakeBuilder{}
	fr := &fakeRegistry{}
	creds := StaticCredentialSource{Cred: entity.Credential{Username: "ci-bot", Token: "tok-secret"}}

	o := New(DefaultStages(repo, "hello", fb, fr, creds)...)
	run, err := o.Run(testCtx(), entity.Revision{SHA: sha, Ref: "refs/heads/main"})
	if err == nil {
		t.Fatal("expected run failure")
	}
	if !strings.HasPrefix(run.Failure, "TestFailure") {
		t.Errorf("Failure = %q", run.Failure)
	}
	if fb.calls != 0 {
		t.Errorf("builder called %d times after test failure", fb.calls)
	}
	if fr.loginCalls != 0 || fr.pushCalls != 0 {
		t.Errorf("registry touched after test failure: login=%d push=%d", fr.loginCalls, fr.pushCalls)
	}
}

func TestInstallFailureClassifiedAsDependencyError(t *testing.T) {
	repo, sha := initProject(t, `
image: hello
install: "false"
test: "true"
`)
	fb := &fakeBuilder{}
	fr := &fakeRegistry{}
	creds := StaticCredentialSource{Cred: entity.Credential{Username: "ci-bot", Token: "tok-secret"}}

	o := New(DefaultStages(repo, "hello", fb, fr, creds)...)
	run, err := o.Run(testCtx(), entity.Revision{SHA: sha, Ref: "refs/heads/main"})
	if err == nil {
		t.Fatal("expected run failure")
	}
	var se *entity.StageError
	if !errors.As(err, &se) || se.Stage != entity.StageInstall {
		t.Fatalf("error = %v; want install stage error", err)
	}
	if !strings.HasPrefix(run.Failure, "DependencyError") {
		t.Errorf("Failure = %q", run.Failure)
	}
	if fb.calls != 0 {
		t.Errorf("image built despite install failure")
	}
}

func TestCheckoutFailureAtUnknownRevision(t *testing.T) {
	repo, _ := initProject(t, passingConfig)
	fb := &fakeBuilder{}
	fr := &fakeRegistry{}
	creds := StaticCredentialSource{Cred: entity.Credential{Username: "ci-bot", Token: "tok-secret"}}

	o := New(DefaultStages(repo, "hello", fb, fr, creds)...)
	run, err := o.Run(testCtx(), entity.Revision{SHA: "ffffffffffffffffffffffffffffffffffffffff"})
	if err == nil {
		t.Fatal("expected run failure")
	}
	if !strings.HasPrefix(run.Failure, "CheckoutError") {
		t.Errorf("Failure = %q", run.Failure)
	}
}

func TestCredentialsNeverAppearInRunOutput(t *testing.T) {
	repo, sha := initProject(t, passingConfig)
	const token = "tok-sup3r-secret"
	fb := &fakeBuilder{}
	fr := &fakeRegistry{}
	creds := StaticCredentialSource{Cred: entity.Credential{Username: "ci-bot", Token: token}}

	o := New(DefaultStages(repo, "hello", fb, fr, creds)...)
	run, err := o.Run(testCtx(), entity.Revision{SHA: sha, Ref: "refs/heads/main"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	for _, sr := range run.Stages {
		if strings.Contains(sr.Output, token) {
			t.Errorf("stage %s output leaked token", sr.Stage)
		}
	}
	if strings.Contains(run.Failure, token) {
		t.Error("run failure leaked token")
	}
}

func TestAuthFailureWithoutCredentials(t *testing.T) {
	repo, sha := initProject(t, passingConfig)
	fb := &fakeBuilder{}
	fr := &fakeRegistry{}

	o := New(DefaultStages(repo, "hello", fb, fr, StaticCredentialSource{})...)
	run, err := o.Run(testCtx(), entity.Revision{SHA: sha, Ref: "refs/heads/main"})
	if err == nil {
		t.Fatal("expected run failure")
	}
	if !strings.HasPrefix(run.Failure, "AuthError") {
		t.Errorf("Failure = %q", run.Failure)
	}
	if fr.pushCalls != 0 {
		t.Error("push attempted without session")
	}
}

func TestPublishFailure(t *testing.T) {
	repo, sha := initProject(t, passingConfig)
	fb := &fakeBuilder{}
	fr := &fakeRegistry{pushErr: errors.New("denied")}
	creds := StaticCredentialSource{Cred: entity.Credential{Username: "ci-bot", Token: "tok"}}

	o := New(DefaultStages(repo, "hello", fb, fr, creds)...)
	run, err := o.Run(testCtx(), entity.Revision{SHA: sha, Ref: "refs/heads/main"})
	if err == nil {
		t.Fatal("expected run failure")
	}
	if !strings.HasPrefix(run.Failure, "PublishError") {
		t.Errorf("Failure = %q", run.Failure)
	}
	// the local artifact was still built
	if fb.calls != 1 {
		t.Errorf("builder calls = %d", fb.calls)
	}
}
