package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/riteshkumar/terminal-bank/internal/errors"
	"github.com/riteshkumar/terminal-bank/internal/models"
	"github.com/riteshkumar/terminal-bank/internal/service"
	u "github.com/riteshkumar/terminal-bank/internal/utils"
)

type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

func NewAccountHandler(accountService service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/accounts", h.ListAccounts).Methods(http.MethodGet)
	router.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost)
	router.HandleFunc("/accounts/{id}", h.GetAccount).Methods(http.MethodGet)
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid create account request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	account, err := h.accountService.Signup(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "create account")
		return
	}

	u.WriteJSON(w, http.StatusCreated, models.NewAccountResponse(*account))
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := u.PathID(r)
	if err != nil {
		h.handleServiceError(w, err, "get account")
		return
	}

	accounts, err := h.accountService.SelectByID(r.Context(), id, models.OpEqual)
	if err != nil {
		h.handleServiceError(w, err, "get account")
		return
	}
	if len(accounts) == 0 {
		u.WriteError(w, http.StatusNotFound, "account not found", "")
		return
	}

	u.WriteJSON(w, http.StatusOK, models.NewAccountResponse(accounts[0]))
}

// ListAccounts returns every live account, or those matching
// ?field=&op=&value= when field is given. op defaults to "=".
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	field := models.Field(query.Get("field"))
	op := models.Operator(query.Get("op"))

	var (
		accounts []models.Account
		err      error
	)
	if field == "" {
		accounts, err = h.accountService.SelectAll(r.Context())
	} else {
		value, convErr := strconv.Atoi(query.Get("value"))
		if convErr != nil {
			u.WriteError(w, http.StatusBadRequest, "invalid value", "value must be an integer")
			return
		}
		switch field {
		case models.FieldID:
			accounts, err = h.accountService.SelectByID(r.Context(), value, op)
		case models.FieldAge:
			accounts, err = h.accountService.SelectByAge(r.Context(), value, op)
		case models.FieldBalance:
			accounts, err = h.accountService.SelectByBalance(r.Context(), value, op)
		default:
			err = errors.ErrInvalidField
		}
	}
	if err != nil {
		h.handleServiceError(w, err, "list accounts")
		return
	}

	response := make([]models.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		response = append(response, models.NewAccountResponse(a))
	}
	u.WriteJSON(w, http.StatusOK, response)
}

func (h *AccountHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.IsNotFound(err):
		u.WriteError(w, http.StatusNotFound, "account not found", "")
	case errors.IsAlreadyExists(err):
		u.WriteError(w, http.StatusConflict, "account already exists", "")
	case errors.IsValidationError(err):
		u.WriteError(w, http.StatusBadRequest, "validation error", err.Error())
	case err == errors.ErrInvalidAccountID:
		u.WriteError(w, http.StatusBadRequest, "invalid account ID", "")
	case err == errors.ErrInvalidField, err == errors.ErrInvalidOperator:
		u.WriteError(w, http.StatusBadRequest, "invalid filter", err.Error())
	default:
		h.logger.Error("internal server error during "+operation, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
