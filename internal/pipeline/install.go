package pipeline

import (
	"context"
	"time"

	"github.com/yz4230/shipci/internal/entity"
)

// installStage resolves the project's declared dependencies with its
// lockfile-driven install command.
type installStage struct{}

func NewInstall() Stage { return installStage{} }

func (installStage) Name() entity.StageName { return entity.StageInstall }

func (installStage) Execute(ctx context.Context, sc *StageContext) (string, error) {
	timeout := time.Duration(sc.Config.StageTimeoutSeconds) * time.Second
	return runShell(ctx, sc.SourceDir(), sc.Config.InstallCommand, timeout)
}
