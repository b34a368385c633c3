package http

import (
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"cashflow/internal/core"
)

type registerRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	if req.Username == "" {
		req.Username = identity.DisplayName
	}
	if err := s.ledger.RegisterUser(r.Context(), identity.ID, identity.Email, req.Username); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidate(identity.ID)

	slog.InfoContext(r.Context(), "User registered",
		"user_id", identity.ID,
		"username", req.Username)
	writeJSON(w, http.StatusCreated, map[string]string{"id": identity.ID})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	profile, err := s.ledger.Profile(r.Context(), identity.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if accounts, ok := s.accountsCache.Get(identity.ID); ok {
		writeJSON(w, http.StatusOK, accounts)
		return
	}
	accounts, err := s.ledger.AccountCards(r.Context(), identity.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.accountsCache.Set(identity.ID, accounts)
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var a core.Account
	if err := readJSON(r, &a); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	a.ID = ""
	id, err := s.ledger.CreateAccount(r.Context(), identity.ID, a)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidate(identity.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	a, err := s.ledger.AccountByID(r.Context(), identity.ID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var a core.Account
	if err := readJSON(r, &a); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	a.ID = r.PathValue("id")
	if err := s.ledger.UpdateAccountDetails(r.Context(), identity.ID, a); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidate(identity.ID)
	writeJSON(w, http.StatusOK, map[string]string{"id": a.ID})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.ledger.DeleteAccount(r.Context(), identity.ID, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidate(identity.ID)
	w.WriteHeader(http.StatusNoContent)
}

type mutationRequest struct {
	Amount    string `json:"amount"`
	AccountID string `json:"accountId"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	Notes     string `json:"notes"`
}

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, core.TypeIncome)
}

func (s *Server) handleExpense(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, core.TypeExpense)
}

func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request, kind core.TransactionType) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req mutationRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}

	if kind == core.TypeIncome {
		err = s.ledger.RecordIncome(r.Context(), identity.ID, req.Amount, req.AccountID, req.Category, req.Date, req.Notes)
	} else {
		err = s.ledger.RecordExpense(r.Context(), identity.ID, req.Amount, req.AccountID, req.Category, req.Date, req.Notes)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidate(identity.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type transferRequest struct {
	Amount   string `json:"amount"`
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req transferRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	if err := s.ledger.RecordTransfer(r.Context(), identity.ID, req.Amount, req.SourceID, req.TargetID); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidate(identity.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	records, err := s.ledger.Transactions(r.Context(), identity.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if groups, ok := s.historyCache.Get(identity.ID); ok {
		writeJSON(w, http.StatusOK, groups)
		return
	}
	groups, err := s.ledger.History(r.Context(), identity.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.historyCache.Set(identity.ID, groups)
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	total, err := s.ledger.TotalBalance(r.Context(), identity.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"totalBalance": total})
}

type dashboardResponse struct {
	TotalBalance float64         `json:"totalBalance"`
	Accounts     []core.Account  `json:"accounts"`
	History      []core.DayGroup `json:"history"`
}

// handleDashboard aggregates the home screen in one round trip. Accounts
// and history are independent reads, so they run concurrently.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identify(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var resp dashboardResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		accounts, err := s.ledger.AccountCards(ctx, identity.ID)
		if err != nil {
			return err
		}
		resp.Accounts = accounts
		resp.TotalBalance = core.SumBalances(accounts)
		return nil
	})
	g.Go(func() error {
		groups, err := s.ledger.History(ctx, identity.ID)
		if err != nil {
			return err
		}
		resp.History = groups
		return nil
	})
	if err := g.Wait(); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
