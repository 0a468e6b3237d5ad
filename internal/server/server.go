package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"scrumline/internal/config"
	"scrumline/internal/domain"
	"scrumline/internal/engine"
	"scrumline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"run abc: not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, config.ErrInvalid):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

// New returns an HTTP handler exposing the simulation API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Scrumline API", "0.1.0")
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerRuns(group, cfg.Engine)

	return router, nil
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerRuns(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-run",
		Method:        http.MethodPost,
		Path:          "/runs",
		Summary:       "Simulate and store a run",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateRunRequest `json:"body"`
	}) (*struct {
		Body RunResponse `json:"body"`
	}, error) {
		backlog, err := config.NormalizeBacklog(input.Body.Backlog)
		if err != nil {
			return nil, handleError(err)
		}
		team, err := config.NormalizeTeam(input.Body.Team)
		if err != nil {
			return nil, handleError(err)
		}
		run, _, err := e.Run(ctx, engine.RunSpec{
			Backlog:          backlog,
			Team:             team,
			PickSmallerFirst: input.Body.Options.PickSmallerFirst,
			Record:           true,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RunResponse `json:"body"`
		}{Body: runResponse(run)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-runs",
		Method:      http.MethodGet,
		Path:        "/runs",
		Summary:     "List stored runs",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []RunResponse `json:"body"`
	}, error) {
		runs, err := e.Repo.ListRuns(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []RunResponse `json:"body"`
		}{Body: mapRuns(runs)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-run",
		Method:      http.MethodGet,
		Path:        "/runs/{id}",
		Summary:     "Get stored run",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body RunResponse `json:"body"`
	}, error) {
		run, err := e.Repo.GetRun(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RunResponse `json:"body"`
		}{Body: runResponse(run)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-run-events",
		Method:      http.MethodGet,
		Path:        "/runs/{id}/events",
		Summary:     "List a run's event stream",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ID    string `path:"id"`
		Type  string `query:"type"`
		Story string `query:"story"`
		Limit int    `query:"limit"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		evts, err := e.Repo.ListRunEvents(ctx, input.ID, repo.EventFilters{
			Type:  input.Type,
			Story: input.Story,
			Limit: input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		if evts == nil {
			evts = []domain.Event{}
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: evts}, nil
	})
}
