package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/venue-api/internal/database"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries.
type ReportsStore interface {
	GetDailyIncome(ctx context.Context, arg database.GetDailyIncomeParams) ([]database.GetDailyIncomeRow, error)
	GetVenueComparison(ctx context.Context, arg database.GetVenueComparisonParams) ([]database.GetVenueComparisonRow, error)
}

// ReportsHandler serves income summaries built from the ledger.
type ReportsHandler struct {
	store ReportsStore
}

func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers venue-scoped report endpoints.
// Expected to be mounted inside a venue-scoped subrouter: /venues/{vid}/reports
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-income", h.DailyIncome)
}

// RegisterOwnerRoutes registers cross-venue report endpoints.
// Expected to be mounted at the root level: /reports
func (h *ReportsHandler) RegisterOwnerRoutes(r chi.Router) {
	r.Get("/venue-comparison", h.VenueComparison)
}

type dailyIncomeResponse struct {
	Date        string `json:"date"`
	EntryCount  int64  `json:"entry_count"`
	OrderSales  string `json:"order_sales"`
	HallBooking string `json:"hall_booking"`
	TotalIncome string `json:"total_income"`
}

type venueComparisonResponse struct {
	VenueID     uuid.UUID `json:"venue_id"`
	VenueName   string    `json:"venue_name"`
	EntryCount  int64     `json:"entry_count"`
	TotalIncome string    `json:"total_income"`
}

// DailyIncome returns per-day income for one venue, split into order sales
// and hall bookings.
func (h *ReportsHandler) DailyIncome(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetDailyIncome(r.Context(), database.GetDailyIncomeParams{
		VenueID:           venueID,
		TransactionDate:   start,
		TransactionDate_2: end,
	})
	if err != nil {
		log.Printf("ERROR: get daily income: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dailyIncomeResponse, len(rows))
	for i, row := range rows {
		resp[i] = dailyIncomeResponse{
			Date:        row.IncomeDate.Time.Format(dateLayout),
			EntryCount:  row.EntryCount,
			OrderSales:  numericToString(row.OrderSales),
			HallBooking: numericToString(row.HallBooking),
			TotalIncome: numericToString(row.TotalIncome),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// VenueComparison returns total income per venue over the range. Venues with
// no income are listed with zero.
func (h *ReportsHandler) VenueComparison(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetVenueComparison(r.Context(), database.GetVenueComparisonParams{
		TransactionDate:   start,
		TransactionDate_2: end,
	})
	if err != nil {
		log.Printf("ERROR: get venue comparison: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]venueComparisonResponse, len(rows))
	for i, row := range rows {
		resp[i] = venueComparisonResponse{
			VenueID:     row.VenueID,
			VenueName:   row.VenueName,
			EntryCount:  row.EntryCount,
			TotalIncome: numericToString(row.TotalIncome),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseDateRange reads start_date and end_date (inclusive, YYYY-MM-DD) and
// returns them as a half-open range [start, end+1 day). Without parameters
// it covers the last 30 days up to today in Asia/Jakarta.
func parseDateRange(r *http.Request) (pgtype.Date, pgtype.Date, error) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*3600)
	}
	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	start := today.AddDate(0, 0, -30)
	end := today.AddDate(0, 0, 1)

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return pgtype.Date{}, pgtype.Date{}, errors.New("invalid start_date format, use YYYY-MM-DD")
		}
		start = t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return pgtype.Date{}, pgtype.Date{}, errors.New("invalid end_date format, use YYYY-MM-DD")
		}
		end = t.AddDate(0, 0, 1)
	}

	if !start.Before(end) {
		return pgtype.Date{}, pgtype.Date{}, errors.New("end_date must not be before start_date")
	}
	return pgtype.Date{Time: start, Valid: true}, pgtype.Date{Time: end, Valid: true}, nil
}
