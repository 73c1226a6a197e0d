package usecase

import (
	"context"

	"github.com/samber/do"
	"github.com/yz4230/shipci/internal/entity"
	"github.com/yz4230/shipci/internal/git"
	"github.com/yz4230/shipci/internal/repository"
)

type CreateRepositoryUsecase interface {
	Execute(ctx context.Context, repo *entity.Repository) (*entity.Repository, error)
}

type createRepositoryUsecaseImpl struct {
	gitStorage           git.Storage
	repositoryRepository repository.RepositoryRepository
}

// Execute implements CreateRepositoryUsecase.
func (c *createRepositoryUsecaseImpl) Execute(ctx context.Context, repo *entity.Repository) (*entity.Repository, error) {
	repo.FillDefaults()
	if exists := c.gitStorage.IsRepoExist(repo.Name); exists {
		return nil, entity.ErrConflict
	}
	if err := c.gitStorage.InitBareRepo(ctx, repo.Name); err != nil {
		return nil, entity.ErrInternal
	}
	return c.repositoryRepository.Create(ctx, repo)
}

func NewCreateRepositoryUsecase(injector *do.Injector) (CreateRepositoryUsecase, error) {
	return &createRepositoryUsecaseImpl{
		gitStorage:           do.MustInvoke[git.Storage](injector),
		repositoryRepository: do.MustInvoke[repository.RepositoryRepository](injector),
	}, nil
}
