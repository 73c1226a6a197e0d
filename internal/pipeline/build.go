package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yz4230/shipci/internal/entity"
)

// buildStage constructs the immutable container image for the run's
// revision. When the project ships no Dockerfile, the configured
// recipe is rendered into one.
type buildStage struct {
	builder ImageBuilder
}

func NewBuild(builder ImageBuilder) Stage {
	return &buildStage{builder: builder}
}

func (s *buildStage) Name() entity.StageName { return entity.StageBuild }

func (s *buildStage) Execute(ctx context.Context, sc *StageContext) (string, error) {
	src := sc.SourceDir()

	dockerfile := filepath.Join(src, "Dockerfile")
	if _, err := os.Stat(dockerfile); os.IsNotExist(err) {
		rendered, err := sc.Config.Recipe.Render()
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(dockerfile, []byte(rendered), 0o644); err != nil {
			return "", fmt.Errorf("write dockerfile: %w", err)
		}
	}

	image := sc.Config.ImageRef()
	tags := []string{
		fmt.Sprintf("%s:%s", image, sc.Revision.SHA),
		fmt.Sprintf("%s:latest", image),
	}
	labels := map[string]string{
		"shipci.ref":    sc.Revision.Ref,
		"shipci.commit": sc.Revision.SHA,
	}

	imageID, buildLog, err := s.builder.BuildImage(ctx, src, tags, labels)
	if err != nil {
		return buildLog, err
	}
	sc.Artifact = &entity.Artifact{Image: image, Tags: tags, EngineID: imageID}
	return buildLog, nil
}
