package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/wervio/wervio/internal/handlers/employerctx"
	"github.com/wervio/wervio/internal/handlers/render"
	"github.com/wervio/wervio/internal/models"
)

// EmployerHeader carries the tenant id. Authentication happens upstream (the
// gateway validates the session and sets this header); this middleware only
// resolves the record and rejects archived tenants.
const EmployerHeader = "X-Employer-Id"

type employerService interface {
	Get(ctx context.Context, id uuid.UUID) (models.Employer, error)
}

func EmployerMiddleware(es employerService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(r.Header.Get(EmployerHeader))
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			employer, err := es.Get(r.Context(), id)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if employer.Status == models.EmployerStatusArchived {
				render.ServiceError(w, "Account archived", http.StatusForbidden)
				return
			}

			ctx := employerctx.New(r.Context(), employer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
