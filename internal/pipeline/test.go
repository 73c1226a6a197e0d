package pipeline

import (
	"context"
	"time"

	"github.com/yz4230/shipci/internal/entity"
)

// testStage runs the project's self-declared test command. Projects
// without tests declare an explicit no-op; config validation rejects an
// empty command, so the stage never silently skips.
type testStage struct{}

func NewTest() Stage { return testStage{} }

func (testStage) Name() entity.StageName { return entity.StageTest }

func (testStage) Execute(ctx context.Context, sc *StageContext) (string, error) {
	timeout := time.Duration(sc.Config.StageTimeoutSeconds) * time.Second
	return runShell(ctx, sc.SourceDir(), sc.Config.TestCommand, timeout)
}
