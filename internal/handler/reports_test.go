package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/venue-api/internal/auth"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/kiwari-pos/venue-api/internal/enum"
	"github.com/kiwari-pos/venue-api/internal/handler"
	"github.com/kiwari-pos/venue-api/internal/middleware"
)

type mockReportsStore struct {
	dailyFn      func(ctx context.Context, arg database.GetDailyIncomeParams) ([]database.GetDailyIncomeRow, error)
	comparisonFn func(ctx context.Context, arg database.GetVenueComparisonParams) ([]database.GetVenueComparisonRow, error)
}

func (m *mockReportsStore) GetDailyIncome(ctx context.Context, arg database.GetDailyIncomeParams) ([]database.GetDailyIncomeRow, error) {
	return m.dailyFn(ctx, arg)
}

func (m *mockReportsStore) GetVenueComparison(ctx context.Context, arg database.GetVenueComparisonParams) ([]database.GetVenueComparisonRow, error) {
	return m.comparisonFn(ctx, arg)
}

func setupReportsRouter(store *mockReportsStore) *chi.Mux {
	h := handler.NewReportsHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testSecret))
	r.Route("/venues/{vid}/reports", h.RegisterRoutes)
	r.Route("/reports", h.RegisterOwnerRoutes)
	return r
}

func ownerClaims(venueID uuid.UUID) *auth.Claims {
	c := testClaims(venueID)
	c.Role = enum.StaffRoleOwner
	return c
}

func pgDate(t *testing.T, s string) pgtype.Date {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return pgtype.Date{Time: d, Valid: true}
}

func decodeList(t *testing.T, body []byte) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode list: %v; body: %s", err, body)
	}
	return out
}

func TestDailyIncome(t *testing.T) {
	venueID := uuid.New()
	var got database.GetDailyIncomeParams
	store := &mockReportsStore{
		dailyFn: func(_ context.Context, arg database.GetDailyIncomeParams) ([]database.GetDailyIncomeRow, error) {
			got = arg
			return []database.GetDailyIncomeRow{
				{
					IncomeDate:  pgDate(t, "2026-03-14"),
					EntryCount:  3,
					OrderSales:  numeric(t, "110.00"),
					HallBooking: numeric(t, "1500.00"),
					TotalIncome: numeric(t, "1610.00"),
				},
				{
					IncomeDate:  pgDate(t, "2026-03-15"),
					EntryCount:  1,
					OrderSales:  numeric(t, "42.50"),
					HallBooking: numeric(t, "0"),
					TotalIncome: numeric(t, "42.50"),
				},
			}, nil
		},
	}

	rr := doAuthRequest(t, setupReportsRouter(store), "GET",
		"/venues/"+venueID.String()+"/reports/daily-income?start_date=2026-03-01&end_date=2026-03-31", nil, testClaims(venueID))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if got.VenueID != venueID {
		t.Errorf("venue: got %s", got.VenueID)
	}
	// end_date is inclusive, so the query bound is the following day
	if got.TransactionDate.Time.Format("2006-01-02") != "2026-03-01" || got.TransactionDate_2.Time.Format("2006-01-02") != "2026-04-01" {
		t.Errorf("range: %s - %s", got.TransactionDate.Time, got.TransactionDate_2.Time)
	}

	days := decodeList(t, rr.Body.Bytes())
	if len(days) != 2 {
		t.Fatalf("days: got %d, want 2", len(days))
	}
	first := days[0]
	if first["date"] != "2026-03-14" || first["entry_count"] != float64(3) {
		t.Errorf("first day: %v", first)
	}
	if first["order_sales"] != "110.00" || first["hall_booking"] != "1500.00" || first["total_income"] != "1610.00" {
		t.Errorf("first day amounts: %v", first)
	}
	if days[1]["hall_booking"] != "0.00" {
		t.Errorf("second day hall_booking: %v", days[1]["hall_booking"])
	}
}

func TestDailyIncome_DefaultRange(t *testing.T) {
	venueID := uuid.New()
	var got database.GetDailyIncomeParams
	store := &mockReportsStore{
		dailyFn: func(_ context.Context, arg database.GetDailyIncomeParams) ([]database.GetDailyIncomeRow, error) {
			got = arg
			return []database.GetDailyIncomeRow{}, nil
		},
	}

	rr := doAuthRequest(t, setupReportsRouter(store), "GET", "/venues/"+venueID.String()+"/reports/daily-income", nil, testClaims(venueID))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if days := got.TransactionDate_2.Time.Sub(got.TransactionDate.Time).Hours() / 24; days != 31 {
		t.Errorf("default range: got %v days, want 31", days)
	}
	if rr.Body.String() != "[]\n" {
		t.Errorf("body: got %q, want empty list", rr.Body.String())
	}
}

func TestDailyIncome_BadRange(t *testing.T) {
	venueID := uuid.New()
	store := &mockReportsStore{
		dailyFn: func(_ context.Context, _ database.GetDailyIncomeParams) ([]database.GetDailyIncomeRow, error) {
			t.Fatal("store should not be called")
			return nil, nil
		},
	}
	router := setupReportsRouter(store)

	for _, q := range []string{
		"?start_date=2026-02-30",
		"?end_date=today",
		"?start_date=2026-03-31&end_date=2026-03-01",
	} {
		rr := doAuthRequest(t, router, "GET", "/venues/"+venueID.String()+"/reports/daily-income"+q, nil, testClaims(venueID))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want %d", q, rr.Code, http.StatusBadRequest)
		}
	}

	// a single day is a valid range
	store.dailyFn = func(_ context.Context, arg database.GetDailyIncomeParams) ([]database.GetDailyIncomeRow, error) {
		return nil, nil
	}
	rr := doAuthRequest(t, router, "GET", "/venues/"+venueID.String()+"/reports/daily-income?start_date=2026-03-14&end_date=2026-03-14", nil, testClaims(venueID))
	if rr.Code != http.StatusOK {
		t.Errorf("single day: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestDailyIncome_StoreError(t *testing.T) {
	venueID := uuid.New()
	store := &mockReportsStore{
		dailyFn: func(_ context.Context, _ database.GetDailyIncomeParams) ([]database.GetDailyIncomeRow, error) {
			return nil, errors.New("boom")
		},
	}
	rr := doAuthRequest(t, setupReportsRouter(store), "GET", "/venues/"+venueID.String()+"/reports/daily-income", nil, testClaims(venueID))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestVenueComparison(t *testing.T) {
	busy, quiet := uuid.New(), uuid.New()
	var got database.GetVenueComparisonParams
	store := &mockReportsStore{
		comparisonFn: func(_ context.Context, arg database.GetVenueComparisonParams) ([]database.GetVenueComparisonRow, error) {
			got = arg
			return []database.GetVenueComparisonRow{
				{VenueID: busy, VenueName: "Balai Utama", EntryCount: 12, TotalIncome: numeric(t, "8250.00")},
				{VenueID: quiet, VenueName: "Gedung Timur", EntryCount: 0, TotalIncome: numeric(t, "0")},
			}, nil
		},
	}

	rr := doAuthRequest(t, setupReportsRouter(store), "GET", "/reports/venue-comparison?start_date=2026-03-01&end_date=2026-03-07", nil, ownerClaims(busy))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if got.TransactionDate.Time.Format("2006-01-02") != "2026-03-01" || got.TransactionDate_2.Time.Format("2006-01-02") != "2026-03-08" {
		t.Errorf("range: %s - %s", got.TransactionDate.Time, got.TransactionDate_2.Time)
	}

	venues := decodeList(t, rr.Body.Bytes())
	if len(venues) != 2 {
		t.Fatalf("venues: got %d, want 2", len(venues))
	}
	if venues[0]["venue_id"] != busy.String() || venues[0]["total_income"] != "8250.00" || venues[0]["entry_count"] != float64(12) {
		t.Errorf("first venue: %v", venues[0])
	}
	if venues[1]["venue_name"] != "Gedung Timur" || venues[1]["total_income"] != "0.00" {
		t.Errorf("second venue: %v", venues[1])
	}
}

func TestVenueComparison_StoreError(t *testing.T) {
	store := &mockReportsStore{
		comparisonFn: func(_ context.Context, _ database.GetVenueComparisonParams) ([]database.GetVenueComparisonRow, error) {
			return nil, errors.New("boom")
		},
	}
	rr := doAuthRequest(t, setupReportsRouter(store), "GET", "/reports/venue-comparison", nil, ownerClaims(uuid.New()))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
