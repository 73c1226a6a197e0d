package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/moby/go-archive"
	"github.com/rs/zerolog"
	"github.com/yz4230/shipci/internal/entity"
)

// Engine drives the container engine for the build, authenticate and
// publish stages.
type Engine struct {
	cli *client.Client
}

func NewEngine() (*Engine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Engine{cli: cli}, nil
}

func (e *Engine) Close() error { return e.cli.Close() }

// BuildImage tars the source tree into a build context and builds it
// with the engine, returning the image ID and the streamed build log.
func (e *Engine) BuildImage(ctx context.Context, contextDir string, tags []string, labels map[string]string) (string, string, error) {
	log := zerolog.Ctx(ctx)

	buildContext, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return "", "", fmt.Errorf("create tar archive: %w", err)
	}
	defer buildContext.Close()

	resp, err := e.cli.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:       tags,
		Labels:     labels,
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return "", "", fmt.Errorf("build image: %w", err)
	}
	defer resp.Body.Close()

	var (
		imageID  string
		buildLog strings.Builder
	)
	dec := json.NewDecoder(resp.Body)
	for {
		var jm jsonmessage.JSONMessage
		if err := dec.Decode(&jm); err != nil {
			if err == io.EOF {
				break
			}
			return "", buildLog.String(), fmt.Errorf("decode build stream: %w", err)
		}
		if stream := strings.TrimSpace(jm.Stream); stream != "" {
			buildLog.WriteString(stream)
			buildLog.WriteString("\n")
			log.Debug().Msg(stream)
		}
		if jm.Error != nil {
			return "", buildLog.String(), fmt.Errorf("build failed: %s", jm.Error.Message)
		}
		if jm.Aux != nil {
			var result build.Result
			if err := json.Unmarshal(*jm.Aux, &result); err != nil {
				return "", buildLog.String(), fmt.Errorf("unmarshal build result: %w", err)
			}
			imageID = result.ID
		}
	}
	if imageID == "" {
		return "", buildLog.String(), fmt.Errorf("engine reported no image ID")
	}

	log.Info().Str("image", imageID).Strs("tags", tags).Msg("built image")
	return imageID, buildLog.String(), nil
}

// Login verifies the credential against the registry and returns the
// encoded auth the push call presents. The credential does not outlive
// the run.
func (e *Engine) Login(ctx context.Context, host string, cred entity.Credential) (string, error) {
	authConfig := registry.AuthConfig{
		Username:      cred.Username,
		Password:      cred.Token,
		ServerAddress: host,
	}
	res, err := e.cli.RegistryLogin(ctx, authConfig)
	if err != nil {
		return "", fmt.Errorf("registry login: %w", err)
	}
	if res.IdentityToken != "" {
		authConfig = registry.AuthConfig{IdentityToken: res.IdentityToken, ServerAddress: host}
	}
	session, err := registry.EncodeAuthConfig(authConfig)
	if err != nil {
		return "", fmt.Errorf("encode auth: %w", err)
	}
	return session, nil
}

// Push publishes one tagged image using the session from Login.
func (e *Engine) Push(ctx context.Context, ref, session string) (string, error) {
	log := zerolog.Ctx(ctx)

	rc, err := e.cli.ImagePush(ctx, ref, image.PushOptions{RegistryAuth: session})
	if err != nil {
		return "", fmt.Errorf("push image: %w", err)
	}
	defer rc.Close()

	var pushLog strings.Builder
	dec := json.NewDecoder(rc)
	for {
		var jm jsonmessage.JSONMessage
		if err := dec.Decode(&jm); err != nil {
			if err == io.EOF {
				break
			}
			return pushLog.String(), fmt.Errorf("decode push stream: %w", err)
		}
		if jm.Status != "" {
			pushLog.WriteString(jm.Status)
			pushLog.WriteString("\n")
		}
		if jm.Error != nil {
			return pushLog.String(), fmt.Errorf("push failed: %s", jm.Error.Message)
		}
	}

	log.Info().Str("ref", ref).Msg("pushed image")
	return pushLog.String(), nil
}
