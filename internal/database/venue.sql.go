// source: venue.sql

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createVenue = `-- name: CreateVenue :one
INSERT INTO venues (name) VALUES ($1)
RETURNING id, name, created_at
`

func (q *Queries) CreateVenue(ctx context.Context, name string) (Venue, error) {
	row := q.db.QueryRow(ctx, createVenue, name)
	var i Venue
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const getTaxSetting = `-- name: GetTaxSetting :one
SELECT venue_id, tax_rate_percent, updated_at FROM tax_settings
WHERE venue_id = $1
`

func (q *Queries) GetTaxSetting(ctx context.Context, venueID uuid.UUID) (TaxSetting, error) {
	row := q.db.QueryRow(ctx, getTaxSetting, venueID)
	var i TaxSetting
	err := row.Scan(&i.VenueID, &i.TaxRatePercent, &i.UpdatedAt)
	return i, err
}

const upsertTaxSetting = `-- name: UpsertTaxSetting :one
INSERT INTO tax_settings (venue_id, tax_rate_percent) VALUES ($1, $2)
ON CONFLICT (venue_id) DO UPDATE SET tax_rate_percent = EXCLUDED.tax_rate_percent, updated_at = now()
RETURNING venue_id, tax_rate_percent, updated_at
`

type UpsertTaxSettingParams struct {
	VenueID        uuid.UUID      `json:"venue_id"`
	TaxRatePercent pgtype.Numeric `json:"tax_rate_percent"`
}

func (q *Queries) UpsertTaxSetting(ctx context.Context, arg UpsertTaxSettingParams) (TaxSetting, error) {
	row := q.db.QueryRow(ctx, upsertTaxSetting, arg.VenueID, arg.TaxRatePercent)
	var i TaxSetting
	err := row.Scan(&i.VenueID, &i.TaxRatePercent, &i.UpdatedAt)
	return i, err
}

const getRestaurantTable = `-- name: GetRestaurantTable :one
SELECT id, venue_id, table_number, seats, is_active FROM restaurant_tables
WHERE venue_id = $1 AND table_number = $2 AND is_active = true
`

type GetRestaurantTableParams struct {
	VenueID     uuid.UUID `json:"venue_id"`
	TableNumber string    `json:"table_number"`
}

func (q *Queries) GetRestaurantTable(ctx context.Context, arg GetRestaurantTableParams) (RestaurantTable, error) {
	row := q.db.QueryRow(ctx, getRestaurantTable, arg.VenueID, arg.TableNumber)
	var i RestaurantTable
	err := row.Scan(&i.ID, &i.VenueID, &i.TableNumber, &i.Seats, &i.IsActive)
	return i, err
}

const createRestaurantTable = `-- name: CreateRestaurantTable :one
INSERT INTO restaurant_tables (venue_id, table_number, seats) VALUES ($1, $2, $3)
RETURNING id, venue_id, table_number, seats, is_active
`

type CreateRestaurantTableParams struct {
	VenueID     uuid.UUID `json:"venue_id"`
	TableNumber string    `json:"table_number"`
	Seats       int32     `json:"seats"`
}

func (q *Queries) CreateRestaurantTable(ctx context.Context, arg CreateRestaurantTableParams) (RestaurantTable, error) {
	row := q.db.QueryRow(ctx, createRestaurantTable, arg.VenueID, arg.TableNumber, arg.Seats)
	var i RestaurantTable
	err := row.Scan(&i.ID, &i.VenueID, &i.TableNumber, &i.Seats, &i.IsActive)
	return i, err
}

const getHall = `-- name: GetHall :one
SELECT id, venue_id, name, capacity, is_active FROM halls
WHERE id = $1 AND venue_id = $2 AND is_active = true
`

type GetHallParams struct {
	ID      uuid.UUID `json:"id"`
	VenueID uuid.UUID `json:"venue_id"`
}

func (q *Queries) GetHall(ctx context.Context, arg GetHallParams) (Hall, error) {
	row := q.db.QueryRow(ctx, getHall, arg.ID, arg.VenueID)
	var i Hall
	err := row.Scan(&i.ID, &i.VenueID, &i.Name, &i.Capacity, &i.IsActive)
	return i, err
}

const createHall = `-- name: CreateHall :one
INSERT INTO halls (venue_id, name, capacity) VALUES ($1, $2, $3)
RETURNING id, venue_id, name, capacity, is_active
`

type CreateHallParams struct {
	VenueID  uuid.UUID `json:"venue_id"`
	Name     string    `json:"name"`
	Capacity int32     `json:"capacity"`
}

func (q *Queries) CreateHall(ctx context.Context, arg CreateHallParams) (Hall, error) {
	row := q.db.QueryRow(ctx, createHall, arg.VenueID, arg.Name, arg.Capacity)
	var i Hall
	err := row.Scan(&i.ID, &i.VenueID, &i.Name, &i.Capacity, &i.IsActive)
	return i, err
}

const getHallServicesByIDs = `-- name: GetHallServicesByIDs :many
SELECT id, venue_id, name, price, is_active FROM hall_services
WHERE venue_id = $1 AND id = ANY($2::UUID[]) AND is_active = true
`

type GetHallServicesByIDsParams struct {
	VenueID uuid.UUID   `json:"venue_id"`
	Ids     []uuid.UUID `json:"ids"`
}

func (q *Queries) GetHallServicesByIDs(ctx context.Context, arg GetHallServicesByIDsParams) ([]HallService, error) {
	rows, err := q.db.Query(ctx, getHallServicesByIDs, arg.VenueID, arg.Ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []HallService{}
	for rows.Next() {
		var i HallService
		if err := rows.Scan(&i.ID, &i.VenueID, &i.Name, &i.Price, &i.IsActive); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createHallService = `-- name: CreateHallService :one
INSERT INTO hall_services (venue_id, name, price) VALUES ($1, $2, $3)
RETURNING id, venue_id, name, price, is_active
`

type CreateHallServiceParams struct {
	VenueID uuid.UUID      `json:"venue_id"`
	Name    string         `json:"name"`
	Price   pgtype.Numeric `json:"price"`
}

func (q *Queries) CreateHallService(ctx context.Context, arg CreateHallServiceParams) (HallService, error) {
	row := q.db.QueryRow(ctx, createHallService, arg.VenueID, arg.Name, arg.Price)
	var i HallService
	err := row.Scan(&i.ID, &i.VenueID, &i.Name, &i.Price, &i.IsActive)
	return i, err
}
