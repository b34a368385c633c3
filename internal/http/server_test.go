package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cashflow/internal/auth"
	"cashflow/internal/core"
	"cashflow/internal/ledger"
	"cashflow/internal/store/memory"
)

const testToken = "test-token"

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	provider := auth.NewStatic(map[string]auth.Identity{
		testToken: {ID: "u1", Email: "u1@example.com", DisplayName: "Pat"},
	})
	s := NewServer(":0", ledger.NewService(st, nil), provider)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, st
}

func doRequest(t *testing.T, s *Server, method, path, body string, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func createAccount(t *testing.T, s *Server, name string) string {
	t.Helper()
	rec := doRequest(t, s, http.MethodPost, "/api/accounts",
		`{"cardCategory":"Cash","cardName":"`+name+`"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: status %d body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[map[string]string](t, rec)["id"]
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	s, _ := newTestServer(t)
	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/api/accounts"},
		{http.MethodPost, "/api/income"},
		{http.MethodGet, "/api/balance"},
	} {
		rec := doRequest(t, s, tt.method, tt.path, "{}", false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tt.method, tt.path, rec.Code)
		}
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRegisterSeedsAccount(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/register", `{"username":"Pat"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/accounts", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("list accounts: status %d", rec.Code)
	}
	accounts := decodeBody[[]core.Account](t, rec)
	if len(accounts) != 1 || accounts[0].CardName != "General" {
		t.Fatalf("expected seeded General account, got %+v", accounts)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/me", "", true)
	profile := decodeBody[core.Profile](t, rec)
	if profile.Username != "Pat" || profile.Email != "u1@example.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestIncomeAndBalance(t *testing.T) {
	s, _ := newTestServer(t)
	id := createAccount(t, s, "Wallet")

	rec := doRequest(t, s, http.MethodPost, "/api/income",
		`{"amount":"250.50","accountId":"`+id+`","category":"Salary"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("income: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/balance", "", true)
	body := decodeBody[map[string]float64](t, rec)
	if body["totalBalance"] != 250.50 {
		t.Fatalf("expected total 250.50, got %v", body["totalBalance"])
	}

	rec = doRequest(t, s, http.MethodGet, "/api/transactions", "", true)
	records := decodeBody[[]core.Transaction](t, rec)
	if len(records) != 1 || records[0].Type != core.TypeIncome {
		t.Fatalf("unexpected ledger: %+v", records)
	}
}

func TestTransferEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	source := createAccount(t, s, "Checking")
	target := createAccount(t, s, "Savings")

	rec := doRequest(t, s, http.MethodPost, "/api/income",
		`{"amount":"100","accountId":"`+source+`"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed income: status %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/transfer",
		`{"amount":"40","sourceId":"`+source+`","targetId":"`+target+`"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/accounts/"+source, "", true)
	if a := decodeBody[core.Account](t, rec); a.Balance != 60 {
		t.Fatalf("expected source balance 60, got %v", a.Balance)
	}
	rec = doRequest(t, s, http.MethodGet, "/api/accounts/"+target, "", true)
	if a := decodeBody[core.Account](t, rec); a.Balance != 40 {
		t.Fatalf("expected target balance 40, got %v", a.Balance)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	s, _ := newTestServer(t)
	source := createAccount(t, s, "Checking")
	target := createAccount(t, s, "Savings")

	rec := doRequest(t, s, http.MethodPost, "/api/transfer",
		`{"amount":"100","sourceId":"`+source+`","targetId":"`+target+`"}`, true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[errorBody](t, rec)
	if body.Code != "insufficient_funds" {
		t.Fatalf("expected insufficient_funds code, got %q", body.Code)
	}
}

func TestInvalidAmountRejected(t *testing.T) {
	s, _ := newTestServer(t)
	id := createAccount(t, s, "Wallet")

	rec := doRequest(t, s, http.MethodPost, "/api/income",
		`{"amount":"-5","accountId":"`+id+`"}`, true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestUnknownAccountIs404(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/accounts/missing", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMalformedBodyIs400(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/income", `{"amount":`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateAccountKeepsBalance(t *testing.T) {
	s, _ := newTestServer(t)
	id := createAccount(t, s, "Wallet")

	rec := doRequest(t, s, http.MethodPost, "/api/income",
		`{"amount":"30","accountId":"`+id+`"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("income: status %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPut, "/api/accounts/"+id,
		`{"cardCategory":"Bank","cardName":"Debit","balance":9999}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/accounts/"+id, "", true)
	a := decodeBody[core.Account](t, rec)
	if a.CardName != "Debit" || a.Balance != 30 {
		t.Fatalf("expected renamed account with balance 30, got %+v", a)
	}
}

func TestDeleteAccount(t *testing.T) {
	s, _ := newTestServer(t)
	id := createAccount(t, s, "Wallet")

	rec := doRequest(t, s, http.MethodDelete, "/api/accounts/"+id, "", true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/api/accounts/"+id, "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestMutationInvalidatesCachedAccounts(t *testing.T) {
	s, _ := newTestServer(t)
	id := createAccount(t, s, "Wallet")

	// Prime the cache.
	rec := doRequest(t, s, http.MethodGet, "/api/accounts", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/income",
		`{"amount":"10","accountId":"`+id+`"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("income: status %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/accounts", "", true)
	accounts := decodeBody[[]core.Account](t, rec)
	if len(accounts) != 1 || accounts[0].Balance != 10 {
		t.Fatalf("expected fresh balance 10 after invalidation, got %+v", accounts)
	}
}

func TestDashboard(t *testing.T) {
	s, _ := newTestServer(t)
	id := createAccount(t, s, "Wallet")

	rec := doRequest(t, s, http.MethodPost, "/api/income",
		`{"amount":"25","accountId":"`+id+`","date":"2026-01-02 09:00:00"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("income: status %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/dashboard", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[dashboardResponse](t, rec)
	if resp.TotalBalance != 25 || len(resp.Accounts) != 1 {
		t.Fatalf("unexpected dashboard: %+v", resp)
	}
	if len(resp.History) != 1 || resp.History[0].Day != "2026-01-02" {
		t.Fatalf("unexpected history grouping: %+v", resp.History)
	}
}
