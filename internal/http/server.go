// Package http is the JSON surface over the ledger service. It owns no
// business rules: it authenticates the bearer token, threads the user id
// into ledger calls and renders results.
package http

import (
	"context"
	"net/http"
	"time"

	"cashflow/internal/auth"
	"cashflow/internal/cache"
	"cashflow/internal/core"
	"cashflow/internal/ledger"
	"cashflow/internal/middleware/trace"
)

type Server struct {
	http.Server

	ledger   *ledger.Service
	provider auth.Provider
	tracer   *trace.Middleware

	// Dashboard reads are cached per user and invalidated after every
	// mutation issued through this server.
	accountsCache *cache.Cache[[]core.Account]
	historyCache  *cache.Cache[[]core.DayGroup]

	cancelJanitor context.CancelFunc
}

func NewServer(addr string, svc *ledger.Service, provider auth.Provider) *Server {
	s := &Server{
		ledger:        svc,
		provider:      provider,
		tracer:        trace.NewMiddleware(),
		accountsCache: cache.New[[]core.Account](256, 2*time.Minute),
		historyCache:  cache.New[[]core.DayGroup](256, 2*time.Minute),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("GET /api/me", s.handleProfile)
	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("POST /api/income", s.handleIncome)
	mux.HandleFunc("POST /api/expense", s.handleExpense)
	mux.HandleFunc("POST /api/transfer", s.handleTransfer)
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/balance", s.handleBalance)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	s.Addr = addr
	s.Handler = s.tracer.Middleware(mux)

	janitorCtx, cancel := context.WithCancel(context.Background())
	s.cancelJanitor = cancel
	go cache.Janitor(janitorCtx, time.Minute, s.accountsCache, s.historyCache)

	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancelJanitor != nil {
		s.cancelJanitor()
	}
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) invalidate(userID string) {
	s.accountsCache.Delete(userID)
	s.historyCache.Delete(userID)
}
