package usecase

import (
	"context"
	"errors"

	"github.com/samber/do"
	"github.com/yz4230/shipci/internal/entity"
	"github.com/yz4230/shipci/internal/git"
	"github.com/yz4230/shipci/internal/pipeline"
	"github.com/yz4230/shipci/internal/repository"
)

type TriggerRunInput struct {
	Reponame string
	Revision entity.Revision
}

// TriggerRunUsecase records a run, drives the pipeline over the pushed
// revision and persists the outcome. The returned run always carries
// the ordered stage results; err is the stage error when the run
// failed.
type TriggerRunUsecase interface {
	Execute(ctx context.Context, in TriggerRunInput) (*entity.Run, error)
}

type triggerRunUsecaseImpl struct {
	gitStorage           git.Storage
	repositoryRepository repository.RepositoryRepository
	runRepository        repository.RunRepository
	builder              pipeline.ImageBuilder
	registry             pipeline.RegistryClient
	creds                pipeline.CredentialSource
}

func (t *triggerRunUsecaseImpl) Execute(ctx context.Context, in TriggerRunInput) (*entity.Run, error) {
	repo, err := t.repositoryRepository.GetByName(ctx, in.Reponame)
	if errors.Is(err, repository.ErrNotFound) {
		// pushed to a repo created implicitly over smart-HTTP
		repo = &entity.Repository{Name: in.Reponame}
		repo.FillDefaults()
		repo, err = t.repositoryRepository.Create(ctx, repo)
	}
	if err != nil {
		return nil, err
	}

	record, err := t.runRepository.Create(ctx, &entity.Run{
		RepoID:    repo.ID,
		Ref:       in.Revision.Ref,
		CommitSHA: in.Revision.SHA,
		Status:    entity.RunStatusRunning,
	})
	if err != nil {
		return nil, err
	}

	stages := pipeline.DefaultStages(
		t.gitStorage.RepoDir(in.Reponame),
		in.Reponame,
		t.builder,
		t.registry,
		t.creds,
	)
	result, runErr := pipeline.New(stages...).Run(ctx, in.Revision)

	record.Status = result.Status
	record.Failure = result.Failure
	record.Stages = result.Stages
	record, err = t.runRepository.Update(ctx, record)
	if err != nil {
		return nil, err
	}

	if runErr == nil {
		repo.LatestSHA = in.Revision.SHA
		if _, err := t.repositoryRepository.Update(ctx, repo); err != nil {
			return record, err
		}
	}
	return record, runErr
}

func NewTriggerRunUsecase(injector *do.Injector) (TriggerRunUsecase, error) {
	return &triggerRunUsecaseImpl{
		gitStorage:           do.MustInvoke[git.Storage](injector),
		repositoryRepository: do.MustInvoke[repository.RepositoryRepository](injector),
		runRepository:        do.MustInvoke[repository.RunRepository](injector),
		builder:              do.MustInvoke[pipeline.ImageBuilder](injector),
		registry:             do.MustInvoke[pipeline.RegistryClient](injector),
		creds:                do.MustInvoke[pipeline.CredentialSource](injector),
	}, nil
}
