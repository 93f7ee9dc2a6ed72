package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wervio/wervio/internal/apperrors"
	"github.com/wervio/wervio/internal/handlers/employerctx"
	"github.com/wervio/wervio/internal/handlers/render"
	"github.com/wervio/wervio/internal/logger"
	"github.com/wervio/wervio/internal/models"
)

type BalanceResponse struct {
	Available      float64 `json:"available"`
	TotalPurchased float64 `json:"total_purchased"`
	TotalSpent     float64 `json:"total_spent"`
}

func balanceToResponse(b models.Balance) BalanceResponse {
	available, _ := b.Available.Float64()
	purchased, _ := b.TotalPurchased.Float64()
	spent, _ := b.TotalSpent.Float64()
	return BalanceResponse{Available: available, TotalPurchased: purchased, TotalSpent: spent}
}

type TransactionResponse struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	Credits    float64    `json:"credits"`
	ProductIDs []string   `json:"product_ids"`
	VacancyID  *string    `json:"vacancy_id,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	InvoiceRef string     `json:"invoice_ref,omitempty"`
}

func transactionToResponse(t models.Transaction) TransactionResponse {
	credits, _ := t.Credits.Float64()
	resp := TransactionResponse{
		ID:         t.ID.String(),
		CreatedAt:  t.CreatedAt,
		Type:       t.Type,
		Status:     t.Status,
		Credits:    credits,
		ProductIDs: t.ProductIDs,
		ExpiresAt:  t.ExpiresAt,
		InvoiceRef: t.InvoiceRef,
	}
	if t.VacancyID != nil {
		id := t.VacancyID.String()
		resp.VacancyID = &id
	}
	return resp
}

func handleBalance(walletService walletService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		balance, err := walletService.GetBalance(r.Context(), employer.ID)

		switch err {
		case nil:
			render.JSON(w, balanceToResponse(balance))
		default:
			l.Error("Failed to get balance", "error", err, "employer_id", employer.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListTransactions(walletService walletService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employer, ok := employerctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		transactions, err := walletService.ListTransactions(r.Context(), employer.ID)

		switch err {
		case nil:
			responses := make([]TransactionResponse, 0, len(transactions))
			for _, t := range transactions {
				responses = append(responses, transactionToResponse(t))
			}
			render.JSON(w, responses)
		default:
			l.Error("Failed to list transactions", "error", err, "employer_id", employer.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handlePurchaseCredits(walletService walletService, l logger.Logger) http.Handler {
	type request struct {
		ProductID  string `json:"product_id" validate:"required"`
		InvoiceRef string `json:"invoice_ref"`
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

		purchase, err := walletService.PurchaseCredits(r.Context(), employer.ID, req.ProductID, req.InvoiceRef)

		switch {
		case err == nil:
			render.JSONWithStatus(w, transactionToResponse(purchase), http.StatusCreated)
		case errors.Is(err, apperrors.ErrProductNotFound):
			render.ServiceError(w, "Product not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrProductNotBundle):
			render.ServiceError(w, "Product is not a credit bundle", http.StatusUnprocessableEntity)
		default:
			l.Error("Failed to purchase credits", "error", err, "employer_id", employer.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleAdjustCredits(walletService walletService, l logger.Logger) http.Handler {
	type request struct {
		Credits float64 `json:"credits" validate:"required"`
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

		adjustment, err := walletService.Adjust(r.Context(), employer.ID, decimal.NewFromFloat(req.Credits))

		switch {
		case err == nil:
			render.JSONWithStatus(w, transactionToResponse(adjustment), http.StatusCreated)
		case errors.Is(err, apperrors.ErrBalanceInsufficient):
			render.BalanceError(w)
		default:
			l.Error("Failed to adjust credits", "error", err, "employer_id", employer.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// handleInvoiceWebhook is the invoicing API callback flipping open purchases
// to paid or failed. Mounted outside the tenant routes: the caller
// identifies the purchase by transaction id.
func handleInvoiceWebhook(walletService walletService, l logger.Logger) http.Handler {
	type request struct {
		TransactionID string `json:"transaction_id" validate:"required,uuid"`
		Status        string `json:"status" validate:"required,oneof=paid failed"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}
		transactionID := uuid.MustParse(req.TransactionID)

		var transaction models.Transaction
		switch req.Status {
		case models.TransactionStatusPaid:
			transaction, err = walletService.ConfirmPayment(r.Context(), transactionID)
		case models.TransactionStatusFailed:
			transaction, err = walletService.FailPayment(r.Context(), transactionID)
		}

		switch {
		case err == nil:
			render.JSON(w, transactionToResponse(transaction))
		case errors.Is(err, apperrors.ErrTransactionNotFound):
			render.ServiceError(w, "Transaction not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrTransactionNotOpen):
			// Repeated webhook delivery, nothing to do
			render.ServiceError(w, "Transaction already settled", http.StatusConflict)
		default:
			l.Error("Failed to process invoice webhook", "error", err, "transaction_id", req.TransactionID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
