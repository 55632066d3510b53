package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/venue-api/internal/booking"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/kiwari-pos/venue-api/internal/enum"
	"github.com/kiwari-pos/venue-api/internal/ledger"
	"github.com/shopspring/decimal"
)

// BookingStore defines the DB methods needed to place hall bookings.
// Satisfied by *database.Queries.
type BookingStore interface {
	ledger.Store
	GetHall(ctx context.Context, arg database.GetHallParams) (database.Hall, error)
	GetHallServicesByIDs(ctx context.Context, arg database.GetHallServicesByIDsParams) ([]database.HallService, error)
	ListHallBookingsByHallDate(ctx context.Context, arg database.ListHallBookingsByHallDateParams) ([]database.HallBooking, error)
	CreateHallBooking(ctx context.Context, arg database.CreateHallBookingParams) (database.HallBooking, error)
	GetHallBooking(ctx context.Context, arg database.GetHallBookingParams) (database.HallBooking, error)
	UpdateHallBookingPlacementState(ctx context.Context, arg database.UpdateHallBookingPlacementStateParams) error
}

// PlaceBookingRequest is a hall booking as submitted by staff.
type PlaceBookingRequest struct {
	VenueID            uuid.UUID
	HallID             uuid.UUID
	CreatedBy          uuid.UUID
	Date               time.Time
	Start              booking.Clock
	End                booking.Clock
	CustomerName       string
	Attendees          int32
	AdditionalServices []uuid.UUID
	TotalAmount        decimal.Decimal
}

// BookingPlacement is what a booking placement or resume produced so far.
type BookingPlacement struct {
	Booking database.HallBooking
	Ledger  *database.Transaction
	Outcome string
}

// BookingWriter places hall bookings: booking row, then ledger entry.
type BookingWriter struct {
	store BookingStore
	slots booking.SlotSet
}

// NewBookingWriter creates a new BookingWriter for the venue-wide slot set.
func NewBookingWriter(store BookingStore, slots booking.SlotSet) *BookingWriter {
	return &BookingWriter{store: store, slots: slots}
}

// Availability lists the hall's slots on date with their availability.
func (w *BookingWriter) Availability(ctx context.Context, venueID, hallID uuid.UUID, date time.Time) ([]booking.Slot, error) {
	if _, err := w.getHall(ctx, venueID, hallID); err != nil {
		return nil, err
	}
	existing, err := w.fetchBookings(ctx, hallID, date)
	if err != nil {
		return nil, err
	}
	return booking.AvailableSlots(w.slots, hallID, date, existing), nil
}

// PlaceBooking re-checks the slot against the latest bookings and writes it.
//
// The re-check is a read followed by a write with no lock in between; the
// hall_bookings_no_overlap exclusion constraint rejects whatever slips
// through, and that rejection is reported as the same *SlotConflictError.
func (w *BookingWriter) PlaceBooking(ctx context.Context, req PlaceBookingRequest) (*BookingPlacement, error) {
	if err := w.validate(req); err != nil {
		return nil, err
	}
	date := calendarDay(req.Date)

	hall, err := w.getHall(ctx, req.VenueID, req.HallID)
	if err != nil {
		return nil, err
	}
	if req.Attendees > hall.Capacity {
		return nil, &ValidationError{Field: "attendees", Err: ErrOverCapacity}
	}

	services := dedupe(req.AdditionalServices)
	if len(services) > 0 {
		found, err := w.store.GetHallServicesByIDs(ctx, database.GetHallServicesByIDsParams{
			VenueID: req.VenueID,
			Ids:     services,
		})
		if err != nil {
			return nil, &PersistenceError{Step: StepHeader, Err: fmt.Errorf("get hall services: %w", err)}
		}
		if len(found) != len(services) {
			return nil, &ValidationError{Field: "additional_services", Err: ErrServiceNotFound}
		}
	}

	existing, err := w.fetchBookings(ctx, req.HallID, date)
	if err != nil {
		return nil, err
	}
	if conflicts := booking.FindConflicts(req.HallID, date, req.Start, req.End, existing); len(conflicts) > 0 {
		return nil, &SlotConflictError{Conflicts: conflicts}
	}

	if services == nil {
		services = []uuid.UUID{}
	}
	row, err := w.store.CreateHallBooking(ctx, database.CreateHallBookingParams{
		VenueID:            req.VenueID,
		HallID:             req.HallID,
		BookingDate:        pgtype.Date{Time: date, Valid: true},
		StartMin:           int32(req.Start),
		EndMin:             int32(req.End),
		CustomerName:       req.CustomerName,
		Attendees:          req.Attendees,
		AdditionalServices: services,
		TotalAmount:        decimalToNumeric(req.TotalAmount),
		CreatedBy:          req.CreatedBy,
	})
	if err != nil {
		if isOverlapViolation(err) {
			return nil, w.conflictAfterRace(ctx, req, date)
		}
		return nil, &PersistenceError{Step: StepHeader, Err: fmt.Errorf("create hall booking: %w", err)}
	}

	return w.complete(ctx, &BookingPlacement{Booking: row}, hall.Name)
}

// ResumeBooking records the ledger entry of a booking whose placement stopped
// after the booking row was written.
func (w *BookingWriter) ResumeBooking(ctx context.Context, venueID, bookingID uuid.UUID) (*BookingPlacement, error) {
	row, err := w.store.GetHallBooking(ctx, database.GetHallBookingParams{ID: bookingID, VenueID: venueID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get hall booking: %w", err)
	}
	if row.Status == enum.BookingStatusCanceled && row.PlacementState != enum.PlacementDone {
		return nil, ErrBookingCanceled
	}

	hallName := ""
	if hall, err := w.store.GetHall(ctx, database.GetHallParams{ID: row.HallID, VenueID: venueID}); err == nil {
		hallName = hall.Name
	}
	return w.complete(ctx, &BookingPlacement{Booking: row}, hallName)
}

func (w *BookingWriter) complete(ctx context.Context, p *BookingPlacement, hallName string) (*BookingPlacement, error) {
	b := p.Booking
	entry, _, err := ledger.RecordIncome(ctx, w.store, ledger.Income{
		VenueID:     b.VenueID,
		Date:        b.CreatedAt,
		Amount:      numericToDecimal(b.TotalAmount),
		Description: bookingDescription(b, hallName),
		Category:    enum.LedgerCategoryHallBooking,
		SourceType:  enum.LedgerSourceBooking,
		SourceRef:   b.ID.String(),
	})
	if err != nil {
		p.Outcome = OutcomePartial
		return p, &PersistenceError{Step: StepLedger, RecordID: b.ID, Err: err}
	}
	p.Ledger = &entry
	w.advance(ctx, p, enum.PlacementLedgerRecorded)
	w.advance(ctx, p, enum.PlacementDone)

	p.Outcome = OutcomeSuccess
	return p, nil
}

func (w *BookingWriter) validate(req PlaceBookingRequest) error {
	if req.Date.IsZero() {
		return &ValidationError{Field: "date", Err: ErrDateRequired}
	}
	if req.CustomerName == "" {
		return &ValidationError{Field: "customer_name", Err: ErrCustomerRequired}
	}
	if req.Attendees < 1 {
		return &ValidationError{Field: "attendees", Err: ErrInvalidAttendees}
	}
	if req.TotalAmount.IsNegative() {
		return &ValidationError{Field: "total_amount", Err: ErrNegativeTotal}
	}
	return w.slots.ValidateInterval(req.Start, req.End)
}

func (w *BookingWriter) getHall(ctx context.Context, venueID, hallID uuid.UUID) (database.Hall, error) {
	hall, err := w.store.GetHall(ctx, database.GetHallParams{ID: hallID, VenueID: venueID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Hall{}, &ValidationError{Field: "hall_id", Err: ErrHallNotFound}
		}
		return database.Hall{}, fmt.Errorf("get hall: %w", err)
	}
	return hall, nil
}

// fetchBookings reads the non-canceled bookings for hall and date.
func (w *BookingWriter) fetchBookings(ctx context.Context, hallID uuid.UUID, date time.Time) ([]booking.Booking, error) {
	rows, err := w.store.ListHallBookingsByHallDate(ctx, database.ListHallBookingsByHallDateParams{
		HallID:      hallID,
		BookingDate: pgtype.Date{Time: calendarDay(date), Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("list hall bookings: %w", err)
	}
	out := make([]booking.Booking, len(rows))
	for i, r := range rows {
		out[i] = ToConflictBooking(r)
	}
	return out, nil
}

// conflictAfterRace builds the conflict error for a booking the database
// refused. The conflicting rows are re-read for reporting only.
func (w *BookingWriter) conflictAfterRace(ctx context.Context, req PlaceBookingRequest, date time.Time) error {
	existing, err := w.fetchBookings(ctx, req.HallID, date)
	if err != nil {
		log.Printf("WARN: re-read bookings after overlap violation: %v", err)
		return &SlotConflictError{}
	}
	return &SlotConflictError{Conflicts: booking.FindConflicts(req.HallID, date, req.Start, req.End, existing)}
}

func (w *BookingWriter) advance(ctx context.Context, p *BookingPlacement, state string) {
	if placementRank[p.Booking.PlacementState] >= placementRank[state] {
		return
	}
	err := w.store.UpdateHallBookingPlacementState(ctx, database.UpdateHallBookingPlacementStateParams{
		ID:             p.Booking.ID,
		PlacementState: state,
	})
	if err != nil {
		log.Printf("WARN: advance booking %s to %s: %v", p.Booking.ID, state, err)
		return
	}
	p.Booking.PlacementState = state
}

// ToConflictBooking converts a stored booking to the form the conflict
// rules take.
func ToConflictBooking(r database.HallBooking) booking.Booking {
	return booking.Booking{
		ID:     r.ID,
		HallID: r.HallID,
		Date:   r.BookingDate.Time,
		Start:  booking.Clock(r.StartMin),
		End:    booking.Clock(r.EndMin),
		Status: r.Status,
	}
}

func bookingDescription(b database.HallBooking, hallName string) string {
	if hallName == "" {
		hallName = "hall"
	}
	return fmt.Sprintf("Hall booking %s %s %s-%s (%s)",
		hallName,
		b.BookingDate.Time.Format("2006-01-02"),
		booking.Clock(b.StartMin),
		booking.Clock(b.EndMin),
		b.CustomerName,
	)
}

// calendarDay drops the time of day and location, keeping the date as written.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// isOverlapViolation checks for the exclusion constraint that forbids two
// live bookings of one hall from overlapping (SQLSTATE 23P01).
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23P01" && pgErr.ConstraintName == "hall_bookings_no_overlap"
	}
	return false
}
