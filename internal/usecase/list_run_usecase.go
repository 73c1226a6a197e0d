package usecase

import (
	"context"

	"github.com/samber/do"
	"github.com/yz4230/shipci/internal/entity"
	"github.com/yz4230/shipci/internal/repository"
)

type ListRunUsecase interface {
	Execute(ctx context.Context) ([]*entity.Run, error)
	ExecuteByRepo(ctx context.Context, repoID entity.ID) ([]*entity.Run, error)
}

type listRunUsecaseImpl struct {
	runRepository repository.RunRepository
}

// Execute implements ListRunUsecase.
func (l *listRunUsecaseImpl) Execute(ctx context.Context) ([]*entity.Run, error) {
	return l.runRepository.List(ctx)
}

// ExecuteByRepo implements ListRunUsecase.
func (l *listRunUsecaseImpl) ExecuteByRepo(ctx context.Context, repoID entity.ID) ([]*entity.Run, error) {
	return l.runRepository.ListByRepo(ctx, repoID)
}

func NewListRunUsecase(injector *do.Injector) (ListRunUsecase, error) {
	return &listRunUsecaseImpl{
		runRepository: do.MustInvoke[repository.RunRepository](injector),
	}, nil
}
