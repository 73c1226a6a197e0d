package pipeline

import (
	"context"
	"fmt"

	"github.com/yz4230/shipci/internal/entity"
)

// authenticateStage exchanges the run's credential for a short-lived
// registry session. The credential itself goes no further: only the
// session reaches the publish stage, and the stage output carries the
// principal, never the token.
type authenticateStage struct {
	registry RegistryClient
	creds    CredentialSource
}

func NewAuthenticate(registry RegistryClient, creds CredentialSource) Stage {
	return &authenticateStage{registry: registry, creds: creds}
}

func (s *authenticateStage) Name() entity.StageName { return entity.StageAuthenticate }

func (s *authenticateStage) Execute(ctx context.Context, sc *StageContext) (string, error) {
	cred, err := s.creds.Credential(ctx)
	if err != nil {
		return "", err
	}
	session, err := s.registry.Login(ctx, sc.Config.Registry.Host, cred)
	if err != nil {
		return "", err
	}
	sc.SetSession(session)
	return fmt.Sprintf("authenticated to %s as %s\n", sc.Config.Registry.Host, cred.Username), nil
}
