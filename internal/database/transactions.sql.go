// source: transactions.sql

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (
    venue_id, transaction_code, transaction_date, description,
    amount, kind, category, source_type, source_ref
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, venue_id, transaction_code, transaction_date, description, amount, kind, category, source_type, source_ref, created_at
`

type CreateTransactionParams struct {
	VenueID         uuid.UUID      `json:"venue_id"`
	TransactionCode string         `json:"transaction_code"`
	TransactionDate pgtype.Date    `json:"transaction_date"`
	Description     string         `json:"description"`
	Amount          pgtype.Numeric `json:"amount"`
	Kind            string         `json:"kind"`
	Category        string         `json:"category"`
	SourceType      string         `json:"source_type"`
	SourceRef       string         `json:"source_ref"`
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, createTransaction,
		arg.VenueID,
		arg.TransactionCode,
		arg.TransactionDate,
		arg.Description,
		arg.Amount,
		arg.Kind,
		arg.Category,
		arg.SourceType,
		arg.SourceRef,
	)
	return scanTransaction(row)
}

const getNextTransactionCode = `-- name: GetNextTransactionCode :one
SELECT COALESCE((
    SELECT transaction_code FROM transactions
    WHERE transaction_code ~ ('^' || $1::TEXT || '[0-9]+$')
    ORDER BY LENGTH(transaction_code) DESC, transaction_code DESC
    LIMIT 1
), '')::TEXT AS max_code
`

// GetNextTransactionCode returns the code with the highest number for the
// given prefix, or "" when none exists. Longer codes sort first so the
// sequence keeps counting once it outgrows the zero padding.
func (q *Queries) GetNextTransactionCode(ctx context.Context, prefix string) (string, error) {
	row := q.db.QueryRow(ctx, getNextTransactionCode, prefix)
	var max_code string
	err := row.Scan(&max_code)
	return max_code, err
}

const getTransactionBySource = `-- name: GetTransactionBySource :one
SELECT id, venue_id, transaction_code, transaction_date, description, amount, kind, category, source_type, source_ref, created_at FROM transactions
WHERE source_type = $1 AND source_ref = $2
`

type GetTransactionBySourceParams struct {
	SourceType string `json:"source_type"`
	SourceRef  string `json:"source_ref"`
}

func (q *Queries) GetTransactionBySource(ctx context.Context, arg GetTransactionBySourceParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionBySource, arg.SourceType, arg.SourceRef)
	return scanTransaction(row)
}

const listTransactions = `-- name: ListTransactions :many
SELECT id, venue_id, transaction_code, transaction_date, description, amount, kind, category, source_type, source_ref, created_at FROM transactions
WHERE venue_id = $1
  AND ($2::DATE IS NULL OR transaction_date >= $2)
  AND ($3::DATE IS NULL OR transaction_date <= $3)
  AND ($4::TEXT IS NULL OR kind = $4)
ORDER BY transaction_date DESC, transaction_code DESC
LIMIT $5 OFFSET $6
`

type ListTransactionsParams struct {
	VenueID   uuid.UUID   `json:"venue_id"`
	StartDate pgtype.Date `json:"start_date"`
	EndDate   pgtype.Date `json:"end_date"`
	Kind      pgtype.Text `json:"kind"`
	Limit     int32       `json:"limit"`
	Offset    int32       `json:"offset"`
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactions,
		arg.VenueID,
		arg.StartDate,
		arg.EndDate,
		arg.Kind,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		i, err := scanTransaction(rows)
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

func scanTransaction(row interface{ Scan(...any) error }) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.VenueID,
		&i.TransactionCode,
		&i.TransactionDate,
		&i.Description,
		&i.Amount,
		&i.Kind,
		&i.Category,
		&i.SourceType,
		&i.SourceRef,
		&i.CreatedAt,
	)
	return i, err
}
