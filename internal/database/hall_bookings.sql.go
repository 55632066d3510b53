// source: hall_bookings.sql

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const hallBookingColumns = `id, venue_id, hall_id, booking_date, start_min, end_min, customer_name, attendees, additional_services, status, total_amount, placement_state, created_by, created_at, updated_at`

const createHallBooking = `-- name: CreateHallBooking :one
INSERT INTO hall_bookings (
    venue_id, hall_id, booking_date, start_min, end_min, customer_name,
    attendees, additional_services, total_amount, placement_state, created_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'HEADER_CREATED', $10)
RETURNING ` + hallBookingColumns

type CreateHallBookingParams struct {
	VenueID            uuid.UUID      `json:"venue_id"`
	HallID             uuid.UUID      `json:"hall_id"`
	BookingDate        pgtype.Date    `json:"booking_date"`
	StartMin           int32          `json:"start_min"`
	EndMin             int32          `json:"end_min"`
	CustomerName       string         `json:"customer_name"`
	Attendees          int32          `json:"attendees"`
	AdditionalServices []uuid.UUID    `json:"additional_services"`
	TotalAmount        pgtype.Numeric `json:"total_amount"`
	CreatedBy          uuid.UUID      `json:"created_by"`
}

func (q *Queries) CreateHallBooking(ctx context.Context, arg CreateHallBookingParams) (HallBooking, error) {
	row := q.db.QueryRow(ctx, createHallBooking,
		arg.VenueID,
		arg.HallID,
		arg.BookingDate,
		arg.StartMin,
		arg.EndMin,
		arg.CustomerName,
		arg.Attendees,
		arg.AdditionalServices,
		arg.TotalAmount,
		arg.CreatedBy,
	)
	return scanHallBooking(row)
}

const getHallBooking = `-- name: GetHallBooking :one
SELECT ` + hallBookingColumns + ` FROM hall_bookings
WHERE id = $1 AND venue_id = $2
`

type GetHallBookingParams struct {
	ID      uuid.UUID `json:"id"`
	VenueID uuid.UUID `json:"venue_id"`
}

func (q *Queries) GetHallBooking(ctx context.Context, arg GetHallBookingParams) (HallBooking, error) {
	row := q.db.QueryRow(ctx, getHallBooking, arg.ID, arg.VenueID)
	return scanHallBooking(row)
}

const listHallBookingsByHallDate = `-- name: ListHallBookingsByHallDate :many
SELECT ` + hallBookingColumns + ` FROM hall_bookings
WHERE hall_id = $1 AND booking_date = $2 AND status <> 'CANCELED'
ORDER BY start_min
`

type ListHallBookingsByHallDateParams struct {
	HallID      uuid.UUID   `json:"hall_id"`
	BookingDate pgtype.Date `json:"booking_date"`
}

func (q *Queries) ListHallBookingsByHallDate(ctx context.Context, arg ListHallBookingsByHallDateParams) ([]HallBooking, error) {
	return q.queryHallBookings(ctx, listHallBookingsByHallDate, arg.HallID, arg.BookingDate)
}

const listHallBookings = `-- name: ListHallBookings :many
SELECT ` + hallBookingColumns + ` FROM hall_bookings
WHERE venue_id = $1
  AND ($2::UUID IS NULL OR hall_id = $2)
  AND ($3::DATE IS NULL OR booking_date = $3)
  AND ($4::TEXT IS NULL OR status = $4)
ORDER BY booking_date DESC, start_min
LIMIT $5 OFFSET $6
`

type ListHallBookingsParams struct {
	VenueID     uuid.UUID   `json:"venue_id"`
	HallID      pgtype.UUID `json:"hall_id"`
	BookingDate pgtype.Date `json:"booking_date"`
	Status      pgtype.Text `json:"status"`
	Limit       int32       `json:"limit"`
	Offset      int32       `json:"offset"`
}

func (q *Queries) ListHallBookings(ctx context.Context, arg ListHallBookingsParams) ([]HallBooking, error) {
	return q.queryHallBookings(ctx, listHallBookings,
		arg.VenueID,
		arg.HallID,
		arg.BookingDate,
		arg.Status,
		arg.Limit,
		arg.Offset,
	)
}

const updateHallBookingPlacementState = `-- name: UpdateHallBookingPlacementState :exec
UPDATE hall_bookings SET placement_state = $2, updated_at = now()
WHERE id = $1
`

type UpdateHallBookingPlacementStateParams struct {
	ID             uuid.UUID `json:"id"`
	PlacementState string    `json:"placement_state"`
}

func (q *Queries) UpdateHallBookingPlacementState(ctx context.Context, arg UpdateHallBookingPlacementStateParams) error {
	_, err := q.db.Exec(ctx, updateHallBookingPlacementState, arg.ID, arg.PlacementState)
	return err
}

const updateHallBookingStatus = `-- name: UpdateHallBookingStatus :one
UPDATE hall_bookings SET status = $1, updated_at = now()
WHERE id = $2 AND venue_id = $3 AND status = $4
RETURNING ` + hallBookingColumns

type UpdateHallBookingStatusParams struct {
	Status   string    `json:"status"`
	ID       uuid.UUID `json:"id"`
	VenueID  uuid.UUID `json:"venue_id"`
	Status_2 string    `json:"status_2"`
}

func (q *Queries) UpdateHallBookingStatus(ctx context.Context, arg UpdateHallBookingStatusParams) (HallBooking, error) {
	row := q.db.QueryRow(ctx, updateHallBookingStatus, arg.Status, arg.ID, arg.VenueID, arg.Status_2)
	return scanHallBooking(row)
}

func (q *Queries) queryHallBookings(ctx context.Context, sql string, args ...interface{}) ([]HallBooking, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []HallBooking{}
	for rows.Next() {
		i, err := scanHallBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanHallBooking(row interface{ Scan(...any) error }) (HallBooking, error) {
	var i HallBooking
	err := row.Scan(
		&i.ID,
		&i.VenueID,
		&i.HallID,
		&i.BookingDate,
		&i.StartMin,
		&i.EndMin,
		&i.CustomerName,
		&i.Attendees,
		&i.AdditionalServices,
		&i.Status,
		&i.TotalAmount,
		&i.PlacementState,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
