package repository

import (
	"context"

	"github.com/yz4230/shipci/internal/entity"
	"gorm.io/gorm"
)

type RunRepository interface {
	Create(ctx context.Context, run *entity.Run) (*entity.Run, error)
	GetByID(ctx context.Context, id entity.ID) (*entity.Run, error)
	List(ctx context.Context) ([]*entity.Run, error)
	ListByRepo(ctx context.Context, repoID entity.ID) ([]*entity.Run, error)
	Update(ctx context.Context, run *entity.Run) (*entity.Run, error)
}

type runRepositoryImpl struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepositoryImpl{db: db}
}

// Create records a new pipeline run.
func (r *runRepositoryImpl) Create(ctx context.Context, run *entity.Run) (*entity.Run, error) {
	var model Run
	model.FromEntity(run)
	if err := gorm.G[Run](r.db).Create(ctx, &model); err != nil {
		return nil, err
	}
	return model.ToEntity(), nil
}

// GetByID finds a run by id.
func (r *runRepositoryImpl) GetByID(ctx context.Context, id entity.ID) (*entity.Run, error) {
	found, err := gorm.G[Run](r.db).Where("id = ?", id.Uint()).First(ctx)
	if err != nil {
		return nil, err
	}
	return found.ToEntity(), nil
}

// List returns all runs, newest first.
func (r *runRepositoryImpl) List(ctx context.Context) ([]*entity.Run, error) {
	founds, err := gorm.G[Run](r.db).Order("id DESC").Find(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*entity.Run, len(founds))
	for i, f := range founds {
		res[i] = f.ToEntity()
	}
	return res, nil
}

// ListByRepo lists runs belonging to a repository, newest first.
func (r *runRepositoryImpl) ListByRepo(ctx context.Context, repoID entity.ID) ([]*entity.Run, error) {
	founds, err := gorm.G[Run](r.db).Where("repo_id = ?", repoID.Uint()).Order("id DESC").Find(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*entity.Run, len(founds))
	for i, f := range founds {
		res[i] = f.ToEntity()
	}
	return res, nil
}

// Update persists a run's status, failure and stage outcomes.
func (r *runRepositoryImpl) Update(ctx context.Context, run *entity.Run) (*entity.Run, error) {
	var model Run
	model.FromEntity(run)
	_, err := gorm.G[Run](r.db).Where("id = ?", run.ID.Uint()).Updates(ctx, model)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, run.ID)
}
