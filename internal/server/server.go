package server

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/yz4230/shipci/internal/docker"
	"github.com/yz4230/shipci/internal/git"
	"github.com/yz4230/shipci/internal/pipeline"
	"github.com/yz4230/shipci/internal/repository"
	"github.com/yz4230/shipci/internal/server/routes"
	"github.com/yz4230/shipci/internal/usecase"
	"gorm.io/gorm"
)

type Config struct {
	DataDir string
	Port    int
	Logger  zerolog.Logger
}

type Server struct {
	e      *echo.Echo
	config *Config
}

func New(config *Config) *Server {
	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogRemoteIP:  true,
		LogHost:      true,
		LogMethod:    true,
		LogURI:       true,
		LogUserAgent: true,
		LogStatus:    true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			config.Logger.Info().
				Str("remote_ip", v.RemoteIP).
				Str("host", v.Host).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("user_agent", v.UserAgent).
				Int("status", v.Status).
				Int64("latency_ms", v.Latency.Milliseconds()).
				Msg("handled request")
			return nil
		},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			config.Logger.Error().Err(err).Bytes("stack", stack).Send()
			return err
		},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := config.Logger.WithContext(req.Context())
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	})

	s := &Server{e: e, config: config}
	s.init()
	return s
}

func (s *Server) init() {
	injector := do.New()
	s.injectDependencies(injector)
	s.registerRoutes(injector)
}

func (s *Server) injectDependencies(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*gorm.DB, error) {
		return repository.NewSQLiteDB(s.config.DataDir)
	})
	do.Provide(injector, func(i *do.Injector) (git.Storage, error) {
		return git.NewStorage(s.config.DataDir), nil
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
		db := do.MustInvoke[*gorm.DB](i)
		return repository.NewRepositoryRepository(db), nil
	})
	do.Provide(injector, func(i *do.Injector) (repository.RunRepository, error) {
		db := do.MustInvoke[*gorm.DB](i)
		return repository.NewRunRepository(db), nil
	})
	do.Provide(injector, usecase.NewCreateRepositoryUsecase)
	do.Provide(injector, usecase.NewGetRepositoryByNameUsecase)
	do.Provide(injector, usecase.NewListRepositoryUsecase)
	do.Provide(injector, usecase.NewTriggerRunUsecase)
	do.Provide(injector, usecase.NewGetRunUsecase)
	do.Provide(injector, usecase.NewListRunUsecase)
}

func (s *Server) registerRoutes(injector *do.Injector) {
	routes.RegisterRestAPI(injector, s.e)
	routes.RegisterGitSmartHTTP(injector, s.e)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.config.Logger.Info().Str("addr", addr).Msg("starting server")
	return s.e.Start(addr)
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
