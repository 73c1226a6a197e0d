package entity

import (
	"fmt"
	"time"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

type StageName string

const (
	StageCheckout     StageName = "checkout"
	StageInstall      StageName = "install"
	StageTest         StageName = "test"
	StageBuild        StageName = "build"
	StageAuthenticate StageName = "authenticate"
	StagePublish      StageName = "publish"
)

// failureLabels are the user-visible classifications shown when a run
// fails at a given stage.
var failureLabels = map[StageName]string{
	StageCheckout:     "CheckoutError",
	StageInstall:      "DependencyError",
	StageTest:         "TestFailure",
	StageBuild:        "BuildError",
	StageAuthenticate: "AuthError",
	StagePublish:      "PublishError",
}

func (s StageName) FailureLabel() string {
	if l, ok := failureLabels[s]; ok {
		return l
	}
	return "StageError"
}

// StageError marks a run failure with the stage it originated from.
// Every stage failure is fatal to the run; later stages never execute.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage.FailureLabel(), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type StageStatus string

const (
	StageStatusPassed  StageStatus = "passed"
	StageStatusFailed  StageStatus = "failed"
	StageStatusSkipped StageStatus = "skipped"
)

// StageResult is one ordered stage outcome within a run. Output holds
// the stage's combined stdout/stderr.
type StageResult struct {
	Stage    StageName     `json:"stage"`
	Status   StageStatus   `json:"status"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Run is one pipeline execution over a single revision.
type Run struct {
	ID        ID            `json:"id"`
	RepoID    ID            `json:"repo_id"`
	CommitSHA string        `json:"commit_sha"`
	Ref       string        `json:"ref"`
	Status    RunStatus     `json:"status"`
	Failure   string        `json:"failure,omitempty"`
	Stages    []StageResult `json:"stages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
