package hook

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"github.com/yz4230/shipci/internal/docker"
	"github.com/yz4230/shipci/internal/entity"
	"github.com/yz4230/shipci/internal/git"
	"github.com/yz4230/shipci/internal/pipeline"
	"github.com/yz4230/shipci/internal/repository"
	"github.com/yz4230/shipci/internal/usecase"
	"gorm.io/gorm"
)

var postReceiveFlags struct {
	dataDir string
}

// postReceiveCmd is invoked by the post-receive hook inside the bare
// repository. It activates the pipeline only when the push updated the
// repository's target branch; every other push is ignored.
var postReceiveCmd = &cobra.Command{
	Use:           "post-receive",
	Short:         "Handle post-receive git hook. Not intended to be run manually.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		gitDir, err := os.Getwd()
		if err != nil {
			log.Fatal().Err(err).Msg("getwd")
		}
		reponame := strings.TrimSuffix(filepath.Base(gitDir), ".git")

		events, err := pipeline.ParsePushEvents(os.Stdin)
		if err != nil {
			log.Error().Err(err).Msg("parse push events")
			return err
		}

		injector := do.New()
		injectDependencies(injector, postReceiveFlags.dataDir)

		targetRef := "refs/heads/" + entity.DefaultTargetBranch
		getRepo := do.MustInvoke[usecase.GetRepositoryByNameUsecase](injector)
		ctx := log.Logger.WithContext(cmd.Context())
		if repo, err := getRepo.Execute(ctx, reponame); err == nil {
			targetRef = repo.TargetRef()
		} else if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("load repository")
			return err
		}

		rev, ok := pipeline.MatchTarget(events, targetRef)
		if !ok {
			log.Info().Str("target", targetRef).Msg("no pipeline run for this push")
			return nil
		}

		log.Info().Str("sha", rev.ShortSHA()).Str("ref", rev.Ref).Msg("starting pipeline run...")

		trigger := do.MustInvoke[usecase.TriggerRunUsecase](injector)
		run, err := trigger.Execute(ctx, usecase.TriggerRunInput{Reponame: reponame, Revision: rev})
		if err != nil {
			if run != nil {
				log.Error().Err(err).Str("run_id", run.ID.String()).Msg("pipeline run failed")
			} else {
				log.Error().Err(err).Msg("pipeline run failed")
			}
			return err
		}

		log.Info().Str("run_id", run.ID.String()).Str("sha", rev.ShortSHA()).Msg("pipeline run succeeded")
		return nil
	},
}

func injectDependencies(injector *do.Injector, dataDir string) {
	do.Provide(injector, func(i *do.Injector) (*gorm.DB, error) {
		return repository.NewSQLiteDB(dataDir)
	})
	do.Provide(injector, func(i *do.Injector) (git.Storage, error) {
		return git.NewStorage(dataDir), nil
	})
	do.Provide(injector, func(i *do.Injector) (*docker.Engine, error) {
		return docker.NewEngine()
	})
	do.Provide(injector, func(i *do.Injector) (pipeline.ImageBuilder, error) {
		return do.MustInvoke[*docker.Engine](i), nil
	})
	do.Provide(injector, func(i *do.Injector) (pipeline.RegistryClient, error) {
		return do.MustInvoke[*docker.Engine](i), nil
	})
	do.Provide(injector, func(i *do.Injector) (pipeline.CredentialSource, error) {
		return pipeline.EnvCredentialSource{}, nil
	})
	do.Provide(injector, func(i *do.Injector) (repository.RepositoryRepository, error) {
		return repository.NewRepositoryRepository(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (repository.RunRepository, error) {
		return repository.NewRunRepository(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(injector, usecase.NewGetRepositoryByNameUsecase)
	do.Provide(injector, usecase.NewTriggerRunUsecase)
}

func init() {
	postReceiveCmd.Flags().StringVar(&postReceiveFlags.dataDir, "data-dir", ".", "Service data directory")
}
