package repository

import (
	"encoding/json"

	"github.com/yz4230/shipci/internal/entity"
	"gorm.io/gorm"
)

type Repository struct {
	gorm.Model
	Name         string `gorm:"uniqueIndex"`
	Description  string
	TargetBranch string
	LatestSHA    string
}

func (r *Repository) ToEntity() *entity.Repository {
	return &entity.Repository{
		ID:           entity.NewID(r.ID),
		Name:         r.Name,
		Description:  r.Description,
		TargetBranch: r.TargetBranch,
		LatestSHA:    r.LatestSHA,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r *Repository) FromEntity(e *entity.Repository) {
	// a zero ID means the row is not persisted yet; gorm assigns one
	if e.ID != "" {
		r.ID = e.ID.Uint()
	}
	r.Name = e.Name
	r.Description = e.Description
	r.TargetBranch = e.TargetBranch
	r.LatestSHA = e.LatestSHA
}

type Run struct {
	gorm.Model
	RepoID    uint
	Repo      Repository
	Ref       string
	CommitSHA string
	Status    string
	Failure   string
	Stages    string // ordered stage results, JSON-encoded
}

func (r *Run) ToEntity() *entity.Run {
	var stages []entity.StageResult
	if r.Stages != "" {
		// a row written by this process always holds valid JSON
		_ = json.Unmarshal([]byte(r.Stages), &stages)
	}
	return &entity.Run{
		ID:        entity.NewID(r.ID),
		RepoID:    entity.NewID(r.RepoID),
		Ref:       r.Ref,
		CommitSHA: r.CommitSHA,
		Status:    entity.RunStatus(r.Status),
		Failure:   r.Failure,
		Stages:    stages,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *Run) FromEntity(e *entity.Run) {
	if e.ID != "" {
		r.ID = e.ID.Uint()
	}
	if e.RepoID != "" {
		r.RepoID = e.RepoID.Uint()
	}
	r.Ref = e.Ref
	r.CommitSHA = e.CommitSHA
	r.Status = string(e.Status)
	r.Failure = e.Failure
	if len(e.Stages) > 0 {
		b, _ := json.Marshal(e.Stages)
		r.Stages = string(b)
	} else {
		r.Stages = ""
	}
}
