package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/handlers/employerctx"
	"github.com/wervio/wervio/internal/handlers/render"
	"github.com/wervio/wervio/internal/logger"
	"github.com/wervio/wervio/internal/models"
)

type EmployerResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

func employerToResponse(e models.Employer) EmployerResponse {
	return EmployerResponse{
		ID:         e.ID.String(),
		Name:       e.Name,
		Status:     e.Status,
		CreatedAt:  e.CreatedAt,
		ArchivedAt: e.ArchivedAt,
	}
}

func handleRegisterEmployer(employerService employerService, l logger.Logger) http.Handler {
	type request struct {
		Name string `json:"name" validate:"required,min=2"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		employer, err := employerService.Register(r.Context(), req.Name)

		switch {
		case err == nil:
			render.JSONWithStatus(w, employerToResponse(employer), http.StatusCreated)
		case errors.Is(err, apperrors.ErrEmployerAlreadyExists):
			render.ServiceError(w, "Employer already exists", http.StatusConflict)
		default:
			l.Error("Failed to register employer", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetEmployer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, employerToResponse(employer))
	})
}

func handleActivateEmployer(employerService employerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		activated, err := employerService.Activate(r.Context(), employer.ID)

		switch err {
		case nil:
			render.JSON(w, employerToResponse(activated))
		default:
			l.Error("Failed to activate employer", "error", err, "employer_id", employer.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleArchiveEmployer(employerService employerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		archived, err := employerService.Archive(r.Context(), employer.ID)

		switch err {
		case nil:
			render.JSON(w, employerToResponse(archived))
		default:
			l.Error("Failed to archive employer", "error", err, "employer_id", employer.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
