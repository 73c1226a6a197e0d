package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yz4230/shipci/internal/entity"
)

// Orchestrator drives a run through its stages strictly in order. The
// first failing stage halts the run; the remaining stages are recorded
// as skipped and never execute. Runs share no state: every Run call
// gets a fresh StageContext and may execute concurrently with others.
type Orchestrator struct {
	stages []Stage
}

func New(stages ...Stage) *Orchestrator {
	return &Orchestrator{stages: stages}
}

// Run executes the pipeline over one revision. The returned Run always
// carries the ordered stage outcomes; err is a *entity.StageError when
// any stage failed.
func (o *Orchestrator) Run(ctx context.Context, rev entity.Revision) (*entity.Run, error) {
	log := zerolog.Ctx(ctx)
	now := time.Now()
	run := &entity.Run{
		CommitSHA: rev.SHA,
		Ref:       rev.Ref,
		Status:    entity.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}

	sc := &StageContext{Revision: rev}
	defer sc.cleanup()

	for i, stage := range o.stages {
		log.Info().Str("stage", string(stage.Name())).Str("sha", rev.ShortSHA()).Msg("stage started")
		start := time.Now()
		out, err := stage.Execute(ctx, sc)
		result := entity.StageResult{
			Stage:    stage.Name(),
			Status:   entity.StageStatusPassed,
			Output:   out,
			Duration: time.Since(start),
		}
		if err != nil {
			result.Status = entity.StageStatusFailed
			run.Stages = append(run.Stages, result)
			for _, rest := range o.stages[i+1:] {
				run.Stages = append(run.Stages, entity.StageResult{
					Stage:  rest.Name(),
					Status: entity.StageStatusSkipped,
				})
			}
			stageErr := &entity.StageError{Stage: stage.Name(), Err: err}
			run.Status = entity.RunStatusFailed
			run.Failure = stageErr.Error()
			run.UpdatedAt = time.Now()
			log.Error().Err(err).Str("stage", string(stage.Name())).Msg("stage failed, run halted")
			return run, stageErr
		}
		run.Stages = append(run.Stages, result)
		log.Info().Str("stage", string(stage.Name())).Dur("duration", result.Duration).Msg("stage passed")
	}

	run.Status = entity.RunStatusSucceeded
	run.UpdatedAt = time.Now()
	return run, nil
}
