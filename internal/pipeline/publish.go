package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/yz4230/shipci/internal/entity"
)

// publishStage pushes the run's tagged artifact to the registry using
// the session the authenticate stage opened. A failed push leaves the
// local image in place but unreleased.
type publishStage struct {
	registry RegistryClient
}

func NewPublish(registry RegistryClient) Stage {
	return &publishStage{registry: registry}
}

func (s *publishStage) Name() entity.StageName { return entity.StagePublish }

func (s *publishStage) Execute(ctx context.Context, sc *StageContext) (string, error) {
	if sc.Artifact == nil {
		return "", fmt.Errorf("no artifact to publish")
	}
	if sc.Session() == "" {
		return "", fmt.Errorf("no registry session")
	}

	var out strings.Builder
	for _, tag := range sc.Artifact.Tags {
		pushLog, err := s.registry.Push(ctx, tag, sc.Session())
		out.WriteString(pushLog)
		if err != nil {
			return out.String(), fmt.Errorf("push %s: %w", tag, err)
		}
	}
	return out.String(), nil
}
