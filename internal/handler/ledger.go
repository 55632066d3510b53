package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/kiwari-pos/venue-api/internal/enum"
)

// LedgerStore is satisfied by *database.Queries.
type LedgerStore interface {
	ListTransactions(ctx context.Context, arg database.ListTransactionsParams) ([]database.Transaction, error)
}

type LedgerHandler struct {
	store LedgerStore
}

func NewLedgerHandler(store LedgerStore) *LedgerHandler {
	return &LedgerHandler{store: store}
}

// RegisterRoutes registers ledger endpoints inside /venues/{vid}.
func (h *LedgerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/transactions", h.List)
}

type ledgerListResponse struct {
	Transactions []ledgerEntryResponse `json:"transactions"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// List handles GET /venues/{vid}/transactions?start_date=&end_date=&kind=.
// Both dates are inclusive.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	limit, offset := parsePagination(r)
	params := database.ListTransactionsParams{
		VenueID: venueID,
		Limit:   int32(limit),
		Offset:  int32(offset),
	}

	q := r.URL.Query()
	if s := q.Get("start_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Date{Time: t, Valid: true}
	}
	if s := q.Get("end_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Date{Time: t, Valid: true}
	}
	if params.StartDate.Valid && params.EndDate.Valid && params.EndDate.Time.Before(params.StartDate.Time) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_date must not be before start_date"})
		return
	}
	if s := q.Get("kind"); s != "" {
		if s != enum.LedgerKindIncome && s != enum.LedgerKindExpense {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid kind"})
			return
		}
		params.Kind = pgtype.Text{String: s, Valid: true}
	}

	rows, err := h.store.ListTransactions(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list transactions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]ledgerEntryResponse, len(rows))
	for i, t := range rows {
		resp[i] = dbTransactionToResponse(t)
	}
	writeJSON(w, http.StatusOK, ledgerListResponse{Transactions: resp, Limit: limit, Offset: offset})
}

func dbTransactionToResponse(t database.Transaction) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:              t.ID,
		TransactionCode: t.TransactionCode,
		TransactionDate: t.TransactionDate.Time.Format(dateLayout),
		Description:     t.Description,
		Amount:          numericToString(t.Amount),
		Kind:            t.Kind,
		Category:        t.Category,
		SourceType:      t.SourceType,
		SourceRef:       t.SourceRef,
	}
}
