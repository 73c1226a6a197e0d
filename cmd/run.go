package cmd

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yz4230/shipci/internal/docker"
	"github.com/yz4230/shipci/internal/entity"
	"github.com/yz4230/shipci/internal/pipeline"
)

var runFlags struct {
	dir   string
	sha   string
	image string
}

// runCmd executes one pipeline run over a local work tree. The process
// exit code is the run result.
var runCmd = &cobra.Command{
	Use:           "run",
	Short:         "Run the pipeline once over a local repository",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(runFlags.dir)
		if err != nil {
			return err
		}

		sha := runFlags.sha
		if sha == "" {
			out, err := exec.Command("git", "-C", dir, "rev-parse", "HEAD").Output()
			if err != nil {
				return fmt.Errorf("resolve HEAD in %s: %w", dir, err)
			}
			sha = strings.TrimSpace(string(out))
		}

		image := runFlags.image
		if image == "" {
			image = filepath.Base(dir)
		}

		engine, err := docker.NewEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		stages := pipeline.DefaultStages(dir, image, engine, engine, pipeline.EnvCredentialSource{})
		ctx := log.Logger.WithContext(cmd.Context())
		rev := entity.Revision{SHA: sha, Ref: "refs/heads/local"}

		result, runErr := pipeline.New(stages...).Run(ctx, rev)
		for _, sr := range result.Stages {
			log.Info().
				Str("stage", string(sr.Stage)).
				Str("status", string(sr.Status)).
				Dur("duration", sr.Duration).
				Msg("stage result")
		}
		if runErr != nil {
			log.Error().Err(runErr).Msg("run failed")
			return runErr
		}
		log.Info().Str("sha", rev.ShortSHA()).Msg("run succeeded")
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.dir, "dir", "C", ".", "Repository to run the pipeline over")
	runCmd.Flags().StringVar(&runFlags.sha, "sha", "", "Commit to run at (defaults to HEAD)")
	runCmd.Flags().StringVar(&runFlags.image, "image", "", "Image name (defaults to the directory name)")
}
