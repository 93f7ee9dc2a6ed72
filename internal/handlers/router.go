package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wervio/wervio/internal/handlers/middleware"
	"github.com/wervio/wervio/internal/logger"
	"github.com/wervio/wervio/internal/models"
	"github.com/wervio/wervio/internal/service/catalog"
	"github.com/wervio/wervio/internal/service/checkout"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	employerService employerService,
	walletService walletService,
	vacancyService vacancyService,
	checkoutService checkoutService,
	logger logger.Logger,
) http.Handler {
	employerMiddleware := middleware.EmployerMiddleware(employerService)
	withEmployer := func(h http.Handler) http.Handler {
		return employerMiddleware(h)
	}

	api := http.NewServeMux()

	// No tenant context: registration and the invoicing callback
	api.Handle("POST /employers", handleRegisterEmployer(employerService, logger))
	api.Handle("POST /webhooks/invoice", handleInvoiceWebhook(walletService, logger))

	api.Handle("GET /employer", withEmployer(handleGetEmployer()))
	api.Handle("POST /employer/activate", withEmployer(handleActivateEmployer(employerService, logger)))
	api.Handle("DELETE /employer", withEmployer(handleArchiveEmployer(employerService, logger)))

	api.Handle("GET /balance", withEmployer(handleBalance(walletService, logger)))
	api.Handle("GET /transactions", withEmployer(handleListTransactions(walletService, logger)))
	api.Handle("POST /credits/purchase", withEmployer(handlePurchaseCredits(walletService, logger)))
	api.Handle("POST /credits/adjust", withEmployer(handleAdjustCredits(walletService, logger)))

	api.Handle("POST /vacancies", withEmployer(handleCreateVacancy(vacancyService, logger)))
	api.Handle("GET /vacancies", withEmployer(handleListVacancies(vacancyService, logger)))
	api.Handle("GET /vacancies/{id}", withEmployer(handleGetVacancy(vacancyService, logger)))
	api.Handle("POST /vacancies/{id}/submit", withEmployer(handleSubmitVacancy(vacancyService, logger)))
	api.Handle("POST /vacancies/{id}/publish", withEmployer(handlePublishVacancy(vacancyService, logger)))
	api.Handle("POST /vacancies/{id}/unpublish", withEmployer(handleUnpublishVacancy(vacancyService, logger)))
	api.Handle("GET /vacancies/{id}/upsells", withEmployer(handleVacancyUpsells(checkoutService, logger)))
	api.Handle("POST /vacancies/{id}/boost", withEmployer(handleBoostVacancy(checkoutService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type employerService interface {
	// Register employer in pending onboarding state
	// Has to return apperrors.ErrEmployerAlreadyExists if the name is taken
	Register(ctx context.Context, name string) (models.Employer, error)

	Get(ctx context.Context, id uuid.UUID) (models.Employer, error)
	Activate(ctx context.Context, id uuid.UUID) (models.Employer, error)
	Archive(ctx context.Context, id uuid.UUID) (models.Employer, error)
}

type walletService interface {
	GetBalance(ctx context.Context, employerID uuid.UUID) (models.Balance, error)
	ListTransactions(ctx context.Context, employerID uuid.UUID) ([]models.Transaction, error)
	PurchaseCredits(ctx context.Context, employerID uuid.UUID, productID string, invoiceRef string) (models.Transaction, error)
	ConfirmPayment(ctx context.Context, transactionID uuid.UUID) (models.Transaction, error)
	FailPayment(ctx context.Context, transactionID uuid.UUID) (models.Transaction, error)
	Adjust(ctx context.Context, employerID uuid.UUID, credits decimal.Decimal) (models.Transaction, error)
}

type vacancyService interface {
	Create(ctx context.Context, employerID uuid.UUID, title string, packageID string) (models.Vacancy, error)
	Get(ctx context.Context, employerID, vacancyID uuid.UUID) (models.Vacancy, error)
	List(ctx context.Context, employerID uuid.UUID) ([]models.Vacancy, error)
	Submit(ctx context.Context, employerID, vacancyID uuid.UUID) (models.Vacancy, error)
	Publish(ctx context.Context, employerID, vacancyID uuid.UUID) (models.Vacancy, models.Balance, error)
	Unpublish(ctx context.Context, employerID, vacancyID uuid.UUID) (models.Vacancy, error)
}

type checkoutService interface {
	AvailableUpsells(ctx context.Context, employerID, vacancyID uuid.UUID) ([]catalog.Option, error)

	// Boost must be all-or-nothing: either every selected upsell is paid and
	// applied or nothing changed
	Boost(ctx context.Context, employerID, vacancyID uuid.UUID, selectedIDs []string, newClosingDate *time.Time) (checkout.BoostResult, error)
}
