package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/yz4230/shipci/internal/config"
	"github.com/yz4230/shipci/internal/entity"
)

// Stage is one ordered, gating step of a run. Execute returns the
// stage's combined output for the run record; a non-nil error is fatal
// to the run.
type Stage interface {
	Name() entity.StageName
	Execute(ctx context.Context, sc *StageContext) (string, error)
}

// StageContext carries the data dependency chain between stages: each
// stage consumes what the previous one materialized. It lives for a
// single run and is discarded afterwards.
type StageContext struct {
	Revision entity.Revision
	Config   *config.Pipeline
	WorkDir  string
	Artifact *entity.Artifact

	// session is the short-lived registry auth produced by the
	// authenticate stage and consumed only by publish. Unexported so
	// it cannot wander into run output.
	session string
}

func (sc *StageContext) SetSession(s string) { sc.session = s }
func (sc *StageContext) Session() string     { return sc.session }

// cleanup discards the run's working tree and registry session.
func (sc *StageContext) cleanup() {
	if sc.WorkDir != "" {
		os.RemoveAll(sc.WorkDir)
	}
	sc.session = ""
}

// CredentialSource supplies the (principal, token) pair for the
// authenticate stage. It is handed to that stage only; no other stage
// sees credentials.
type CredentialSource interface {
	Credential(ctx context.Context) (entity.Credential, error)
}

const (
	EnvRegistryUser  = "SHIPCI_REGISTRY_USER"
	EnvRegistryToken = "SHIPCI_REGISTRY_TOKEN"
)

// EnvCredentialSource reads the two named secrets from the process
// environment, the channel the triggering system injects them through.
type EnvCredentialSource struct{}

func (EnvCredentialSource) Credential(ctx context.Context) (entity.Credential, error) {
	c := entity.Credential{
		Username: os.Getenv(EnvRegistryUser),
		Token:    os.Getenv(EnvRegistryToken),
	}
	if c.IsZero() {
		return c, fmt.Errorf("registry credentials not set (%s, %s)", EnvRegistryUser, EnvRegistryToken)
	}
	return c, nil
}

// StaticCredentialSource returns a fixed credential. Used when the
// secrets arrive via scoped configuration instead of the environment.
type StaticCredentialSource struct {
	Cred entity.Credential
}

func (s StaticCredentialSource) Credential(ctx context.Context) (entity.Credential, error) {
	if s.Cred.IsZero() {
		return s.Cred, fmt.Errorf("registry credentials not configured")
	}
	return s.Cred, nil
}

// ImageBuilder constructs a tagged container image from a source tree.
type ImageBuilder interface {
	BuildImage(ctx context.Context, contextDir string, tags []string, labels map[string]string) (imageID, buildLog string, err error)
}

// RegistryClient opens publish sessions against the artifact registry
// and pushes tagged images through them.
type RegistryClient interface {
	Login(ctx context.Context, host string, cred entity.Credential) (session string, err error)
	Push(ctx context.Context, ref, session string) (pushLog string, err error)
}
