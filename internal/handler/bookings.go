package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/venue-api/internal/booking"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/kiwari-pos/venue-api/internal/enum"
	"github.com/kiwari-pos/venue-api/internal/middleware"
	"github.com/kiwari-pos/venue-api/internal/service"
	"github.com/kiwari-pos/venue-api/internal/ws"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// BookingPlacer is satisfied by *service.BookingWriter.
type BookingPlacer interface {
	Availability(ctx context.Context, venueID, hallID uuid.UUID, date time.Time) ([]booking.Slot, error)
	PlaceBooking(ctx context.Context, req service.PlaceBookingRequest) (*service.BookingPlacement, error)
	ResumeBooking(ctx context.Context, venueID, bookingID uuid.UUID) (*service.BookingPlacement, error)
}

// BookingStore is satisfied by *database.Queries.
type BookingStore interface {
	GetHallBooking(ctx context.Context, arg database.GetHallBookingParams) (database.HallBooking, error)
	ListHallBookings(ctx context.Context, arg database.ListHallBookingsParams) ([]database.HallBooking, error)
	UpdateHallBookingStatus(ctx context.Context, arg database.UpdateHallBookingStatusParams) (database.HallBooking, error)
}

type BookingHandler struct {
	svc    BookingPlacer
	store  BookingStore
	events EventPublisher
}

func NewBookingHandler(svc BookingPlacer, store BookingStore, events EventPublisher) *BookingHandler {
	return &BookingHandler{svc: svc, store: store, events: events}
}

// RegisterRoutes registers hall booking endpoints inside /venues/{vid}.
func (h *BookingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/halls/{hid}/availability", h.Availability)
	r.Post("/bookings", h.Place)
	r.Get("/bookings", h.List)
	r.Get("/bookings/{id}", h.Get)
	r.Post("/bookings/{id}/resume", h.Resume)
}

// RegisterManagerRoutes registers the booking endpoints restricted to owners
// and managers.
func (h *BookingHandler) RegisterManagerRoutes(r chi.Router) {
	r.Patch("/bookings/{id}/status", h.UpdateStatus)
}

type placeBookingRequest struct {
	HallID             uuid.UUID       `json:"hall_id"`
	Date               string          `json:"date"`
	StartTime          booking.Clock   `json:"start_time"`
	EndTime            booking.Clock   `json:"end_time"`
	CustomerName       string          `json:"customer_name"`
	Attendees          int32           `json:"attendees"`
	AdditionalServices []uuid.UUID     `json:"additional_services"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
}

type bookingResponse struct {
	ID                 uuid.UUID     `json:"id"`
	VenueID            uuid.UUID     `json:"venue_id"`
	HallID             uuid.UUID     `json:"hall_id"`
	Date               string        `json:"date"`
	StartTime          booking.Clock `json:"start_time"`
	EndTime            booking.Clock `json:"end_time"`
	CustomerName       string        `json:"customer_name"`
	Attendees          int32         `json:"attendees"`
	AdditionalServices []uuid.UUID   `json:"additional_services"`
	Status             string        `json:"status"`
	TotalAmount        string        `json:"total_amount"`
	PlacementState     string        `json:"placement_state"`
	CreatedBy          uuid.UUID     `json:"created_by"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type bookingPlacementResponse struct {
	State     string               `json:"state"`
	Booking   bookingResponse      `json:"booking"`
	Ledger    *ledgerEntryResponse `json:"ledger"`
	Error     string               `json:"error,omitempty"`
	ResumeURL string               `json:"resume_url,omitempty"`
}

type conflictResponse struct {
	ID        uuid.UUID     `json:"id"`
	StartTime booking.Clock `json:"start_time"`
	EndTime   booking.Clock `json:"end_time"`
	Status    string        `json:"status"`
}

type availabilityResponse struct {
	HallID uuid.UUID      `json:"hall_id"`
	Date   string         `json:"date"`
	Slots  []booking.Slot `json:"slots"`
}

type bookingListResponse struct {
	Bookings []bookingResponse `json:"bookings"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// Availability handles GET /venues/{vid}/halls/{hid}/availability?date=YYYY-MM-DD.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	hallID, err := uuid.Parse(chi.URLParam(r, "hid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid hall ID"})
		return
	}

	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
		return
	}

	slots, err := h.svc.Availability(r.Context(), venueID, hallID, date)
	if err != nil {
		if errors.Is(err, service.ErrHallNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "hall not found"})
			return
		}
		log.Printf("ERROR: hall availability: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		HallID: hallID,
		Date:   date.Format(dateLayout),
		Slots:  slots,
	})
}

// Place handles POST /venues/{vid}/bookings.
func (h *BookingHandler) Place(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req placeBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse(dateLayout, req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
			return
		}
	}

	placement, err := h.svc.PlaceBooking(r.Context(), service.PlaceBookingRequest{
		VenueID:            venueID,
		HallID:             req.HallID,
		CreatedBy:          claims.UserID,
		Date:               date,
		Start:              req.StartTime,
		End:                req.EndTime,
		CustomerName:       req.CustomerName,
		Attendees:          req.Attendees,
		AdditionalServices: req.AdditionalServices,
		TotalAmount:        req.TotalAmount,
	})

	var conflict *service.SlotConflictError
	if errors.As(err, &conflict) {
		conflicts := make([]conflictResponse, len(conflict.Conflicts))
		for i, c := range conflict.Conflicts {
			conflicts[i] = conflictResponse{ID: c.ID, StartTime: c.Start, EndTime: c.End, Status: c.Status}
		}
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":     conflict.Error(),
			"conflicts": conflicts,
		})
		return
	}
	if errors.Is(err, service.ErrHallNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "hall not found"})
		return
	}
	h.respondPlacement(w, venueID, placement, err)
}

// Resume handles POST /venues/{vid}/bookings/{id}/resume.
func (h *BookingHandler) Resume(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking ID"})
		return
	}

	placement, err := h.svc.ResumeBooking(r.Context(), venueID, bookingID)
	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
		return
	case errors.Is(err, service.ErrBookingCanceled):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "booking is canceled"})
		return
	}
	h.respondPlacement(w, venueID, placement, err)
}

func (h *BookingHandler) respondPlacement(w http.ResponseWriter, venueID uuid.UUID, p *service.BookingPlacement, err error) {
	if err != nil && service.IsValidation(err) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var perr *service.PersistenceError
	if err != nil && (!errors.As(err, &perr) || perr.Outcome() == service.OutcomeFailed || p == nil) {
		log.Printf("ERROR: place booking: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "booking placement failed",
			"state": service.OutcomeFailed,
		})
		return
	}

	resp := bookingPlacementResponse{
		State:   service.OutcomeSuccess,
		Booking: dbBookingToResponse(p.Booking),
	}
	if p.Ledger != nil {
		entry := dbTransactionToResponse(*p.Ledger)
		resp.Ledger = &entry
	}
	if perr != nil {
		log.Printf("WARN: booking %s placed partially: %v", p.Booking.ID, err)
		resp.State = service.OutcomePartial
		resp.Error = perr.Step + " step failed"
		resp.ResumeURL = fmt.Sprintf("/venues/%s/bookings/%s/resume", venueID, p.Booking.ID)
	}

	h.publish(venueID, ws.EventBookingPlaced, resp.Booking)
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /venues/{vid}/bookings?hall_id=&date=&status=.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	limit, offset := parsePagination(r)
	params := database.ListHallBookingsParams{
		VenueID: venueID,
		Limit:   int32(limit),
		Offset:  int32(offset),
	}
	q := r.URL.Query()
	if s := q.Get("hall_id"); s != "" {
		hallID, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid hall_id"})
			return
		}
		params.HallID = pgtype.UUID{Bytes: hallID, Valid: true}
	}
	if s := q.Get("date"); s != "" {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
			return
		}
		params.BookingDate = pgtype.Date{Time: d, Valid: true}
	}
	if s := q.Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	rows, err := h.store.ListHallBookings(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list hall bookings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]bookingResponse, len(rows))
	for i, b := range rows {
		resp[i] = dbBookingToResponse(b)
	}
	writeJSON(w, http.StatusOK, bookingListResponse{Bookings: resp, Limit: limit, Offset: offset})
}

// Get handles GET /venues/{vid}/bookings/{id}.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking ID"})
		return
	}

	row, err := h.store.GetHallBooking(r.Context(), database.GetHallBookingParams{ID: bookingID, VenueID: venueID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
			return
		}
		log.Printf("ERROR: get hall booking: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbBookingToResponse(row))
}

// UpdateStatus handles PATCH /venues/{vid}/bookings/{id}/status.
// Canceling frees the slot for new bookings.
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid booking ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status != enum.BookingStatusConfirmed && req.Status != enum.BookingStatusCanceled {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	current, err := h.store.GetHallBooking(r.Context(), database.GetHallBookingParams{ID: bookingID, VenueID: venueID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "booking not found"})
			return
		}
		log.Printf("ERROR: get hall booking for status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := validateTransition(bookingTransitions, current.Status, req.Status); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.store.UpdateHallBookingStatus(r.Context(), database.UpdateHallBookingStatusParams{
		Status:   req.Status,
		ID:       bookingID,
		VenueID:  venueID,
		Status_2: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "booking status changed, please retry"})
			return
		}
		log.Printf("ERROR: update hall booking status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbBookingToResponse(updated)
	h.publish(venueID, ws.EventBookingUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) publish(venueID uuid.UUID, eventType string, payload any) {
	if h.events != nil {
		h.events.Publish(venueID, eventType, payload)
	}
}

var bookingTransitions = map[string][]string{
	enum.BookingStatusPending:   {enum.BookingStatusConfirmed, enum.BookingStatusCanceled},
	enum.BookingStatusConfirmed: {enum.BookingStatusCanceled},
}

func dbBookingToResponse(b database.HallBooking) bookingResponse {
	services := b.AdditionalServices
	if services == nil {
		services = []uuid.UUID{}
	}
	return bookingResponse{
		ID:                 b.ID,
		VenueID:            b.VenueID,
		HallID:             b.HallID,
		Date:               b.BookingDate.Time.Format(dateLayout),
		StartTime:          booking.Clock(b.StartMin),
		EndTime:            booking.Clock(b.EndMin),
		CustomerName:       b.CustomerName,
		Attendees:          b.Attendees,
		AdditionalServices: services,
		Status:             b.Status,
		TotalAmount:        numericToString(b.TotalAmount),
		PlacementState:     b.PlacementState,
		CreatedBy:          b.CreatedBy,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}
