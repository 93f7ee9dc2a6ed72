package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/handlers/employerctx"
	"github.com/wervio/wervio/internal/handlers/render"
	"github.com/wervio/wervio/internal/logger"
	"github.com/wervio/wervio/internal/models"
	"github.com/wervio/wervio/internal/service/catalog"
)

type VacancyResponse struct {
	ID               string     `json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	PackageID        string     `json:"package_id"`
	SelectedUpsells  []string   `json:"selected_upsells"`
	FirstPublishedAt *time.Time `json:"first_published_at,omitempty"`
	ClosingDate      *time.Time `json:"closing_date,omitempty"`
	Tags             []string   `json:"tags"`
}

func vacancyToResponse(v models.Vacancy) VacancyResponse {
	return VacancyResponse{
		ID:               v.ID.String(),
		CreatedAt:        v.CreatedAt,
		Title:            v.Title,
		Status:           v.Status,
		PackageID:        v.PackageID,
		SelectedUpsells:  v.SelectedUpsells,
		FirstPublishedAt: v.FirstPublishedAt,
		ClosingDate:      v.ClosingDate,
		Tags:             v.Tags,
	}
}

type UpsellOptionResponse struct {
	ProductID string     `json:"product_id"`
	Name      string     `json:"name"`
	Credits   float64    `json:"credits"`
	Required  bool       `json:"required"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MinDate   *string    `json:"min_date,omitempty"`
	MaxDate   *string    `json:"max_date,omitempty"`
}

func optionToResponse(o catalog.Option) UpsellOptionResponse {
	credits, _ := o.Product.Credits.Float64()
	resp := UpsellOptionResponse{
		ProductID: o.Product.ID,
		Name:      o.Product.Name,
		Credits:   credits,
		Required:  o.Required,
		ExpiresAt: o.ExpiresAt,
	}
	if o.Window != nil {
		min := o.Window.Min.Format(render.DateFormat)
		max := o.Window.Max.Format(render.DateFormat)
		resp.MinDate = &min
		resp.MaxDate = &max
	}
	return resp
}

// vacancyID pulls the path parameter; responds 404 on garbage so guessing
// ids and malformed ids look the same
func vacancyID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Vacancy not found", http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func handleCreateVacancy(vacancyService vacancyService, l logger.Logger) http.Handler {
	type request struct {
		Title     string `json:"title" validate:"required,min=3"`
		PackageID string `json:"package_id" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		vacancy, err := vacancyService.Create(r.Context(), employer.ID, req.Title, req.PackageID)

		switch {
		case err == nil:
			render.JSONWithStatus(w, vacancyToResponse(vacancy), http.StatusCreated)
		case errors.Is(err, apperrors.ErrProductNotFound):
			render.ServiceError(w, "Package not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrProductNotPackage):
			render.ServiceError(w, "Product is not a vacancy package", http.StatusUnprocessableEntity)
		default:
			l.Error("Failed to create vacancy", "error", err, "employer_id", employer.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListVacancies(vacancyService vacancyService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		vacancies, err := vacancyService.List(r.Context(), employer.ID)

		switch err {
		case nil:
			responses := make([]VacancyResponse, 0, len(vacancies))
			for _, v := range vacancies {
				responses = append(responses, vacancyToResponse(v))
			}
			render.JSON(w, responses)
		default:
			l.Error("Failed to list vacancies", "error", err, "employer_id", employer.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetVacancy(vacancyService vacancyService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		id, ok := vacancyID(w, r)
		if !ok {
			return
		}

		vacancy, err := vacancyService.Get(r.Context(), employer.ID, id)

		switch {
		case err == nil:
			render.JSON(w, vacancyToResponse(vacancy))
		case errors.Is(err, apperrors.ErrVacancyNotFound), errors.Is(err, apperrors.ErrVacancyWrongEmployer):
			render.ServiceError(w, "Vacancy not found", http.StatusNotFound)
		default:
			l.Error("Failed to get vacancy", "error", err, "vacancy_id", id)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleSubmitVacancy(vacancyService vacancyService, l logger.Logger) http.Handler {
	return handleTransition(l, "submit", func(r *http.Request, employerID, id uuid.UUID) (models.Vacancy, error) {
		return vacancyService.Submit(r.Context(), employerID, id)
	})
}

func handleUnpublishVacancy(vacancyService vacancyService, l logger.Logger) http.Handler {
	return handleTransition(l, "unpublish", func(r *http.Request, employerID, id uuid.UUID) (models.Vacancy, error) {
		return vacancyService.Unpublish(r.Context(), employerID, id)
	})
}

func handleTransition(l logger.Logger, name string, transition func(r *http.Request, employerID, id uuid.UUID) (models.Vacancy, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		id, ok := vacancyID(w, r)
		if !ok {
			return
		}

		vacancy, err := transition(r, employer.ID, id)

		switch {
		case err == nil:
			render.JSON(w, vacancyToResponse(vacancy))
		case errors.Is(err, apperrors.ErrVacancyNotFound), errors.Is(err, apperrors.ErrVacancyWrongEmployer):
			render.ServiceError(w, "Vacancy not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrVacancyWrongStatus):
			render.ServiceError(w, "Vacancy status does not allow this transition", http.StatusConflict)
		default:
			l.Error("Failed to transition vacancy", "transition", name, "error", err, "vacancy_id", id)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handlePublishVacancy(vacancyService vacancyService, l logger.Logger) http.Handler {
	type response struct {
		Vacancy VacancyResponse `json:"vacancy"`
		Balance BalanceResponse `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		id, ok := vacancyID(w, r)
		if !ok {
			return
		}

		vacancy, balance, err := vacancyService.Publish(r.Context(), employer.ID, id)

		switch {
		case err == nil:
			render.JSON(w, response{Vacancy: vacancyToResponse(vacancy), Balance: balanceToResponse(balance)})
		case errors.Is(err, apperrors.ErrVacancyNotFound), errors.Is(err, apperrors.ErrVacancyWrongEmployer):
			render.ServiceError(w, "Vacancy not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrVacancyWrongStatus):
			render.ServiceError(w, "Vacancy status does not allow publication", http.StatusConflict)
		case errors.Is(err, apperrors.ErrBalanceInsufficient):
			render.BalanceError(w)
		default:
			l.Error("Failed to publish vacancy", "error", err, "vacancy_id", id)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleVacancyUpsells(checkoutService checkoutService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		id, ok := vacancyID(w, r)
		if !ok {
			return
		}

		options, err := checkoutService.AvailableUpsells(r.Context(), employer.ID, id)

		switch {
		case err == nil:
			responses := make([]UpsellOptionResponse, 0, len(options))
			for _, o := range options {
				responses = append(responses, optionToResponse(o))
			}
			render.JSON(w, responses)
		case errors.Is(err, apperrors.ErrVacancyNotFound), errors.Is(err, apperrors.ErrVacancyWrongEmployer):
			render.ServiceError(w, "Vacancy not found", http.StatusNotFound)
		default:
			l.Error("Failed to resolve upsells", "error", err, "vacancy_id", id)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleBoostVacancy(checkoutService checkoutService, l logger.Logger) http.Handler {
	type request struct {
		Upsells     []string `json:"upsells" validate:"required,min=1"`
		ClosingDate string   `json:"closing_date" validate:"date"`
	}

	type response struct {
		Balance BalanceResponse       `json:"balance"`
		Vacancy VacancyResponse       `json:"vacancy"`
		Spends  []TransactionResponse `json:"spends"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		id, ok := vacancyID(w, r)
		if !ok {
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		var closingDate *time.Time
		if req.ClosingDate != "" {
			parsed, _ := render.ParseDate(req.ClosingDate)
			closingDate = &parsed
		}

		result, err := checkoutService.Boost(r.Context(), employer.ID, id, req.Upsells, closingDate)

		var eligibilityErr *apperrors.EligibilityError
		switch {
		case err == nil:
			spends := make([]TransactionResponse, 0, len(result.Spends))
			for _, t := range result.Spends {
				spends = append(spends, transactionToResponse(t))
			}
			render.JSON(w, response{
				Balance: balanceToResponse(result.Balance),
				Vacancy: vacancyToResponse(result.Vacancy),
				Spends:  spends,
			})
		case errors.Is(err, apperrors.ErrVacancyNotFound), errors.Is(err, apperrors.ErrVacancyWrongEmployer):
			render.ServiceError(w, "Vacancy not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrBalanceInsufficient):
			render.BalanceError(w)
		case errors.As(err, &eligibilityErr):
			render.EligibilityError(w, eligibilityErr.Reason.Error(), eligibilityErr.ProductID)
		case errors.Is(err, apperrors.ErrClosingDateRequired),
			errors.Is(err, apperrors.ErrClosingDateUnexpected),
			errors.Is(err, apperrors.ErrNothingSelected):
			render.EligibilityError(w, err.Error(), "")
		default:
			l.Error("Failed to boost vacancy", "error", err, "vacancy_id", id, "employer_id", employer.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
