package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/riteshkumar/terminal-bank/internal/errors"
	"github.com/riteshkumar/terminal-bank/internal/models"
	"github.com/riteshkumar/terminal-bank/internal/service"
	u "github.com/riteshkumar/terminal-bank/internal/utils"
)

type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

func NewTransactionHandler(transactionService service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/transactions", h.CreateTransaction).Methods(http.MethodPost)
	router.HandleFunc("/accounts/{id}/transactions", h.ListTransactions).Methods(http.MethodGet)
	router.HandleFunc("/accounts/{id}/transactions/latest", h.LatestTransaction).Methods(http.MethodGet)
}

// CreateTransaction records a ledger entry between two accounts. Like the
// ledger itself it does not check the sender's balance.
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid create transaction request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}
	if req.FromID == req.ToID {
		h.handleServiceError(w, errors.ErrSameAccount, "create transaction")
		return
	}

	transaction, err := h.transactionService.CreateTransaction(r.Context(), req.Amount, req.FromID, req.ToID)
	if err != nil {
		h.handleServiceError(w, err, "create transaction")
		return
	}

	u.WriteJSON(w, http.StatusCreated, models.NewTransactionResponse(*transaction))
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := u.PathID(r)
	if err != nil {
		h.handleServiceError(w, err, "list transactions")
		return
	}

	transactions, err := h.transactionService.GetTransactions(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err, "list transactions")
		return
	}

	response := make([]models.TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		response = append(response, models.NewTransactionResponse(t))
	}
	u.WriteJSON(w, http.StatusOK, response)
}

func (h *TransactionHandler) LatestTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := u.PathID(r)
	if err != nil {
		h.handleServiceError(w, err, "latest transaction")
		return
	}

	transaction, err := h.transactionService.GetLatestTransaction(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err, "latest transaction")
		return
	}
	if !transaction.Exists() {
		u.WriteError(w, http.StatusNotFound, "transaction not found", "")
		return
	}

	u.WriteJSON(w, http.StatusOK, models.NewTransactionResponse(transaction))
}

func (h *TransactionHandler) handleServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.IsNotFound(err):
		u.WriteError(w, http.StatusNotFound, "account not found", err.Error())
	case errors.IsInsufficientBalance(err):
		u.WriteError(w, http.StatusBadRequest, "insufficient balance", "source account does not have enough funds for txn")
	case errors.IsValidationError(err):
		u.WriteError(w, http.StatusBadRequest, "validation error", err.Error())
	case err == errors.ErrInvalidAccountID:
		u.WriteError(w, http.StatusBadRequest, "invalid account ID", "")
	case err == errors.ErrSameAccount:
		u.WriteError(w, http.StatusBadRequest, "same source and destination account", err.Error())
	case errors.Is(err, errors.ErrBalanceOverflow):
		u.WriteError(w, http.StatusBadRequest, "balance overflow", err.Error())
	case err == errors.ErrInvalidAmount:
		u.WriteError(w, http.StatusBadRequest, "invalid amount", err.Error())
	default:
		h.logger.Error("internal server error during "+action, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
