package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/riteshkumar/terminal-bank/internal/models"
	"github.com/riteshkumar/terminal-bank/internal/repository"
	"github.com/riteshkumar/terminal-bank/internal/service"
	"github.com/riteshkumar/terminal-bank/internal/store/storetest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type api struct {
	router       http.Handler
	accounts     *service.AccountServiceImpl
	transactions *service.TransactionServiceImpl
	reserveID    int
}

func newAPI(t *testing.T) *api {
	t.Helper()

	db := storetest.Open(t)
	logger := storetest.Logger()
	accountRepo := repository.NewAccountRepository(db)
	a := &api{
		accounts:     service.NewAccountService(accountRepo, logger),
		transactions: service.NewTransactionService(db, accountRepo, repository.NewTransactionRepository(db), logger),
	}
	reserveID, err := a.accounts.EnsureReserve(context.Background())
	if err != nil {
		t.Fatalf("EnsureReserve() failed: %v", err)
	}
	a.reserveID = reserveID
	a.router = NewRouter(a.accounts, a.transactions, logger)
	return a
}

func (a *api) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestRequestIDIsKept(t *testing.T) {
	a := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want %q", got, "abc-123")
	}
}

func TestCreateAndGetAccount(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/accounts", models.CreateAccountRequest{Name: "alice", Password: "alice-password", Age: 30})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Errorf("response leaks password: %s", rec.Body.String())
	}
	created := decode[models.AccountResponse](t, rec)

	rec = a.do(t, http.MethodGet, "/accounts/2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	want := models.AccountResponse{ID: 2, Name: "alice", Age: 30, Balance: 0}
	if diff := cmp.Diff(want, decode[models.AccountResponse](t, rec)); diff != "" {
		t.Errorf("account mismatch (-want +got):\n%s", diff)
	}
	if created != want {
		t.Errorf("created = %+v, want %+v", created, want)
	}
}

func TestCreateAccountErrors(t *testing.T) {
	a := newAPI(t)
	a.do(t, http.MethodPost, "/accounts", models.CreateAccountRequest{Name: "alice", Password: "alice-password", Age: 30})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"duplicate", models.CreateAccountRequest{Name: "alice", Password: "alice-password", Age: 30}, http.StatusConflict},
		{"reserve name", models.CreateAccountRequest{Name: "BANK", Password: "bank-password", Age: 30}, http.StatusConflict},
		{"too young", models.CreateAccountRequest{Name: "carol", Password: "carol-password", Age: 17}, http.StatusBadRequest},
		{"short password", models.CreateAccountRequest{Name: "carol", Password: "short", Age: 30}, http.StatusBadRequest},
		{"bad payload", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := a.do(t, http.MethodPost, "/accounts", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestGetAccountErrors(t *testing.T) {
	a := newAPI(t)

	if rec := a.do(t, http.MethodGet, "/accounts/42", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing account status = %d", rec.Code)
	}
	if rec := a.do(t, http.MethodGet, "/accounts/abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}
}

func TestListAccounts(t *testing.T) {
	a := newAPI(t)
	for _, req := range []models.CreateAccountRequest{
		{Name: "alice", Password: "alice-password", Age: 30},
		{Name: "bob", Password: "bob-password", Age: 40},
		{Name: "carol", Password: "carol-password", Age: 50},
	} {
		if rec := a.do(t, http.MethodPost, "/accounts", req); rec.Code != http.StatusCreated {
			t.Fatalf("create %s: status %d", req.Name, rec.Code)
		}
	}

	names := func(rec *httptest.ResponseRecorder) []string {
		var out []string
		for _, acc := range decode[[]models.AccountResponse](t, rec) {
			out = append(out, acc.Name)
		}
		return out
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"BANK", "alice", "bob", "carol"}},
		{"?field=age&op=%3E%3D&value=40", []string{"bob", "carol"}},
		{"?field=age&value=30", []string{"alice"}},
		{"?field=id&op=%3C&value=3", []string{"BANK", "alice"}},
		{"?field=balance&op=%3E&value=0", nil},
	}
	for _, tt := range tests {
		rec := a.do(t, http.MethodGet, "/accounts"+tt.query, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /accounts%s status = %d", tt.query, rec.Code)
		}
		if diff := cmp.Diff(tt.want, names(rec)); diff != "" {
			t.Errorf("GET /accounts%s mismatch (-want +got):\n%s", tt.query, diff)
		}
	}

	for _, query := range []string{"?field=name&value=1", "?field=age&op=LIKE&value=1", "?field=age&value=x"} {
		if rec := a.do(t, http.MethodGet, "/accounts"+query, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("GET /accounts%s status = %d, want 400", query, rec.Code)
		}
	}
}

func TestTransactions(t *testing.T) {
	a := newAPI(t)
	a.do(t, http.MethodPost, "/accounts", models.CreateAccountRequest{Name: "alice", Password: "alice-password", Age: 30})
	a.do(t, http.MethodPost, "/accounts", models.CreateAccountRequest{Name: "bob", Password: "bob-password", Age: 30})

	if rec := a.do(t, http.MethodGet, "/accounts/2/transactions/latest", nil); rec.Code != http.StatusNotFound {
		t.Errorf("latest before any transaction status = %d", rec.Code)
	}

	rec := a.do(t, http.MethodPost, "/transactions", models.CreateTransactionRequest{FromID: a.reserveID, ToID: 2, Amount: 100})
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = a.do(t, http.MethodPost, "/transactions", models.CreateTransactionRequest{FromID: 2, ToID: 3, Amount: 30})
	if rec.Code != http.StatusCreated {
		t.Fatalf("transfer status = %d, body %s", rec.Code, rec.Body.String())
	}
	sent := decode[models.TransactionResponse](t, rec)
	if sent.From != "alice" || sent.To != "bob" || sent.Amount != 30 {
		t.Errorf("transfer response = %+v", sent)
	}

	rec = a.do(t, http.MethodGet, "/accounts/2/transactions", nil)
	history := decode[[]models.TransactionResponse](t, rec)
	if len(history) != 2 || history[0].From != "BANK" || history[1].To != "bob" {
		t.Errorf("history = %+v", history)
	}

	rec = a.do(t, http.MethodGet, "/accounts/2/transactions/latest", nil)
	if latest := decode[models.TransactionResponse](t, rec); latest.ID != sent.ID {
		t.Errorf("latest id = %d, want %d", latest.ID, sent.ID)
	}

	accounts, err := a.accounts.SelectByID(context.Background(), 2, models.OpEqual)
	if err != nil || len(accounts) != 1 || accounts[0].Balance != 70 {
		t.Errorf("alice = %+v, %v, want balance 70", accounts, err)
	}
}

func TestCreateTransactionErrors(t *testing.T) {
	a := newAPI(t)
	a.do(t, http.MethodPost, "/accounts", models.CreateAccountRequest{Name: "alice", Password: "alice-password", Age: 30})

	tests := []struct {
		name string
		req  models.CreateTransactionRequest
		want int
	}{
		{"zero amount", models.CreateTransactionRequest{FromID: 1, ToID: 2, Amount: 0}, http.StatusBadRequest},
		{"same account", models.CreateTransactionRequest{FromID: 2, ToID: 2, Amount: 5}, http.StatusBadRequest},
		{"unknown receiver", models.CreateTransactionRequest{FromID: 1, ToID: 99, Amount: 5}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := a.do(t, http.MethodPost, "/transactions", tt.req); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
