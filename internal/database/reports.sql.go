// source: reports.sql

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getDailyIncome = `-- name: GetDailyIncome :many
SELECT
    transaction_date AS income_date,
    COUNT(*) AS entry_count,
    COALESCE(SUM(amount) FILTER (WHERE category = 'Order Sales'), 0)::NUMERIC(14,2) AS order_sales,
    COALESCE(SUM(amount) FILTER (WHERE category = 'Hall Booking'), 0)::NUMERIC(14,2) AS hall_booking,
    COALESCE(SUM(amount), 0)::NUMERIC(14,2) AS total_income
FROM transactions
WHERE venue_id = $1
  AND kind = 'INCOME'
  AND transaction_date >= $2
  AND transaction_date < $3
GROUP BY transaction_date
ORDER BY transaction_date
`

type GetDailyIncomeParams struct {
	VenueID           uuid.UUID   `json:"venue_id"`
	TransactionDate   pgtype.Date `json:"transaction_date"`
	TransactionDate_2 pgtype.Date `json:"transaction_date_2"`
}

type GetDailyIncomeRow struct {
	IncomeDate  pgtype.Date    `json:"income_date"`
	EntryCount  int64          `json:"entry_count"`
	OrderSales  pgtype.Numeric `json:"order_sales"`
	HallBooking pgtype.Numeric `json:"hall_booking"`
	TotalIncome pgtype.Numeric `json:"total_income"`
}

func (q *Queries) GetDailyIncome(ctx context.Context, arg GetDailyIncomeParams) ([]GetDailyIncomeRow, error) {
	rows, err := q.db.Query(ctx, getDailyIncome, arg.VenueID, arg.TransactionDate, arg.TransactionDate_2)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetDailyIncomeRow{}
	for rows.Next() {
		var i GetDailyIncomeRow
		if err := rows.Scan(
			&i.IncomeDate,
			&i.EntryCount,
			&i.OrderSales,
			&i.HallBooking,
			&i.TotalIncome,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getVenueComparison = `-- name: GetVenueComparison :many
SELECT
    v.id AS venue_id,
    v.name AS venue_name,
    COUNT(t.id) AS entry_count,
    COALESCE(SUM(t.amount), 0)::NUMERIC(14,2) AS total_income
FROM venues v
LEFT JOIN transactions t
    ON t.venue_id = v.id
   AND t.kind = 'INCOME'
   AND t.transaction_date >= $1
   AND t.transaction_date < $2
GROUP BY v.id, v.name
ORDER BY total_income DESC, v.name
`

type GetVenueComparisonParams struct {
	TransactionDate   pgtype.Date `json:"transaction_date"`
	TransactionDate_2 pgtype.Date `json:"transaction_date_2"`
}

type GetVenueComparisonRow struct {
	VenueID     uuid.UUID      `json:"venue_id"`
	VenueName   string         `json:"venue_name"`
	EntryCount  int64          `json:"entry_count"`
	TotalIncome pgtype.Numeric `json:"total_income"`
}

func (q *Queries) GetVenueComparison(ctx context.Context, arg GetVenueComparisonParams) ([]GetVenueComparisonRow, error) {
	rows, err := q.db.Query(ctx, getVenueComparison, arg.TransactionDate, arg.TransactionDate_2)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetVenueComparisonRow{}
	for rows.Next() {
		var i GetVenueComparisonRow
		if err := rows.Scan(
			&i.VenueID,
			&i.VenueName,
			&i.EntryCount,
			&i.TotalIncome,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
