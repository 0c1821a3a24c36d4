package api

import (
	"net/http"
	"strconv"

	"github.com/fadedpez/inkwell/pkg/entities"
)

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, _, err := s.ledger.GetOrCreateWallet(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWalletResponse(wallet))
}

type depositRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	userID := userFrom(r)
	balance, err := s.ledger.Deposit(r.Context(), userID, req.Amount, req.Description)
	if err != nil {
		s.writeError(w, err)
		return
	}

	depositsTotal.Inc()
	s.archiveLatestTransaction(r, userID)

	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var transactions []*entities.Transaction
	var err error

	if kind := r.URL.Query().Get("kind"); kind != "" {
		transactions, err = s.ledger.GetTransactionsByType(r.Context(), userID, entities.TransactionType(kind), limit)
	} else {
		transactions, err = s.ledger.GetRecentTransactions(r.Context(), userID, limit)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponses(transactions))
}

// archiveLatestTransaction ships the caller's newest transaction to the
// archive. Best effort: the ledger is the source of truth and an archive
// outage never fails the request.
func (s *Server) archiveLatestTransaction(r *http.Request, userID string) {
	if s.archive == nil {
		return
	}

	transactions, err := s.ledger.GetRecentTransactions(r.Context(), userID, 1)
	if err != nil || len(transactions) == 0 {
		return
	}

	if err := s.archive.IndexTransaction(r.Context(), transactions[0]); err != nil && s.logger != nil {
		s.logger.Warn("failed to archive transaction %s: %v", transactions[0].ID, err)
	}
}
