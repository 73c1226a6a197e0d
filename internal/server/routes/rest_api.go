package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/do"
	"github.com/yz4230/shipci/internal/entity"
	"github.com/yz4230/shipci/internal/repository"
	"github.com/yz4230/shipci/internal/usecase"
)

func RegisterRestAPI(injector *do.Injector, e *echo.Echo) {
	g := e.Group("/api")

	g.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	g.POST("/repositories", func(c echo.Context) error {
		type request struct {
			Name         string `json:"name"`
			Description  string `json:"description"`
			TargetBranch string `json:"target_branch"`
		}
		var req request
		if err := c.Bind(&req); err != nil {
			return c.NoContent(http.StatusBadRequest)
		}

		usecase := do.MustInvoke[usecase.CreateRepositoryUsecase](injector)
		repo, err := usecase.Execute(c.Request().Context(), &entity.Repository{
			Name:         req.Name,
			Description:  req.Description,
			TargetBranch: req.TargetBranch,
		})
		if err != nil {
			if errors.Is(err, entity.ErrInvalid) {
				return c.NoContent(http.StatusBadRequest)
			}
			if errors.Is(err, entity.ErrConflict) {
				return c.NoContent(http.StatusConflict)
			}
			return c.NoContent(http.StatusInternalServerError)
		}

		return c.JSON(http.StatusCreated, repo)
	})

	g.GET("/repositories", func(c echo.Context) error {
		usecase := do.MustInvoke[usecase.ListRepositoryUsecase](injector)
		repos, err := usecase.Execute(c.Request().Context())
		if err != nil {
			return c.NoContent(http.StatusInternalServerError)
		}

		type response struct {
			Repositories []*entity.Repository `json:"repositories"`
		}
		return c.JSON(http.StatusOK, &response{Repositories: repos})
	})

	g.GET("/runs", func(c echo.Context) error {
		usecase := do.MustInvoke[usecase.ListRunUsecase](injector)
		runs, err := usecase.Execute(c.Request().Context())
		if err != nil {
			return c.NoContent(http.StatusInternalServerError)
		}

		type response struct {
			Runs []*entity.Run `json:"runs"`
		}
		return c.JSON(http.StatusOK, &response{Runs: runs})
	})

	g.GET("/runs/:id", func(c echo.Context) error {
		id, err := entity.ParseID(c.Param("id"))
		if err != nil {
			return c.NoContent(http.StatusNotFound)
		}
		usecase := do.MustInvoke[usecase.GetRunUsecase](injector)
		run, err := usecase.Execute(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.NoContent(http.StatusNotFound)
			}
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, run)
	})

	g.GET("/repositories/:name/runs", func(c echo.Context) error {
		getRepo := do.MustInvoke[usecase.GetRepositoryByNameUsecase](injector)
		repo, err := getRepo.Execute(c.Request().Context(), c.Param("name"))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.NoContent(http.StatusNotFound)
			}
			return c.NoContent(http.StatusInternalServerError)
		}

		listRuns := do.MustInvoke[usecase.ListRunUsecase](injector)
		runs, err := listRuns.ExecuteByRepo(c.Request().Context(), repo.ID)
		if err != nil {
			return c.NoContent(http.StatusInternalServerError)
		}

		type response struct {
			Runs []*entity.Run `json:"runs"`
		}
		return c.JSON(http.StatusOK, &response{Runs: runs})
	})
}
