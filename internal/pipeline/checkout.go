package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yz4230/shipci/internal/config"
	"github.com/yz4230/shipci/internal/entity"
	"github.com/yz4230/shipci/internal/git"
)

// checkoutStage materializes the source tree at the run's revision and
// loads the revision's own pipeline declaration from it.
type checkoutStage struct {
	source       string
	defaultImage string
}

// NewCheckout builds the checkout stage. source is any git directory
// (the hosted bare repo, or a local work tree for one-shot runs);
// defaultImage names the artifact when the project's config does not.
func NewCheckout(source, defaultImage string) Stage {
	return &checkoutStage{source: source, defaultImage: defaultImage}
}

func (s *checkoutStage) Name() entity.StageName { return entity.StageCheckout }

func (s *checkoutStage) Execute(ctx context.Context, sc *StageContext) (string, error) {
	dir, err := os.MkdirTemp("", fmt.Sprintf("shipci-run-%s-*", sc.Revision.ShortSHA()))
	if err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	sc.WorkDir = dir

	src := filepath.Join(dir, "src")
	out, err := git.CloneAtRevision(ctx, s.source, sc.Revision.SHA, src)
	if err != nil {
		return out, err
	}

	cfg, err := config.LoadDir(src)
	if err != nil {
		return out, fmt.Errorf("load pipeline config: %w", err)
	}
	if cfg.Image == "" {
		cfg.Image = s.defaultImage
	}
	if err := cfg.Validate(); err != nil {
		return out, err
	}
	sc.Config = cfg
	return out, nil
}

// SourceDir is where the checked-out tree lives inside the run's work
// dir. Later stages operate on it.
func (sc *StageContext) SourceDir() string {
	return filepath.Join(sc.WorkDir, "src")
}
