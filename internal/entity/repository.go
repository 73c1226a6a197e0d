package entity

import "time"

type Repository struct {
	ID           ID
	Name         string
	Description  string
	TargetBranch string
	LatestSHA    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const DefaultTargetBranch = "main"

func (r *Repository) FillDefaults() {
	if r.TargetBranch == "" {
		r.TargetBranch = DefaultTargetBranch
	}
}

// TargetRef is the fully qualified ref whose updates trigger a
// pipeline run.
func (r *Repository) TargetRef() string {
	return "refs/heads/" + r.TargetBranch
}
