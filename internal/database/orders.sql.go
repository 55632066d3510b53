// source: orders.sql

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    venue_id, order_number, order_type, table_number, customer_name,
    subtotal, discount_type, discount_value, discount_amount,
    tax_rate, tax_amount, total_amount, payment_status,
    placement_state, cart_snapshot, created_by
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'HEADER_CREATED', $14, $15
)
RETURNING id, venue_id, order_number, order_type, table_number, customer_name, subtotal, discount_type, discount_value, discount_amount, tax_rate, tax_amount, total_amount, payment_status, status, placement_state, cart_snapshot, created_by, created_at, updated_at
`

type CreateOrderParams struct {
	VenueID        uuid.UUID      `json:"venue_id"`
	OrderNumber    string         `json:"order_number"`
	OrderType      string         `json:"order_type"`
	TableNumber    pgtype.Text    `json:"table_number"`
	CustomerName   pgtype.Text    `json:"customer_name"`
	Subtotal       pgtype.Numeric `json:"subtotal"`
	DiscountType   string         `json:"discount_type"`
	DiscountValue  pgtype.Numeric `json:"discount_value"`
	DiscountAmount pgtype.Numeric `json:"discount_amount"`
	TaxRate        pgtype.Numeric `json:"tax_rate"`
	TaxAmount      pgtype.Numeric `json:"tax_amount"`
	TotalAmount    pgtype.Numeric `json:"total_amount"`
	PaymentStatus  string         `json:"payment_status"`
	CartSnapshot   []byte         `json:"cart_snapshot"`
	CreatedBy      uuid.UUID      `json:"created_by"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.VenueID,
		arg.OrderNumber,
		arg.OrderType,
		arg.TableNumber,
		arg.CustomerName,
		arg.Subtotal,
		arg.DiscountType,
		arg.DiscountValue,
		arg.DiscountAmount,
		arg.TaxRate,
		arg.TaxAmount,
		arg.TotalAmount,
		arg.PaymentStatus,
		arg.CartSnapshot,
		arg.CreatedBy,
	)
	return scanOrder(row)
}

const getNextOrderNumber = `-- name: GetNextOrderNumber :one
SELECT (COALESCE(MAX(CAST(SUBSTRING(order_number FROM 5) AS INTEGER)), 0) + 1)::INTEGER AS next_number
FROM orders
WHERE venue_id = $1
`

func (q *Queries) GetNextOrderNumber(ctx context.Context, venueID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderNumber, venueID)
	var next_number int32
	err := row.Scan(&next_number)
	return next_number, err
}

const getOrder = `-- name: GetOrder :one
SELECT id, venue_id, order_number, order_type, table_number, customer_name, subtotal, discount_type, discount_value, discount_amount, tax_rate, tax_amount, total_amount, payment_status, status, placement_state, cart_snapshot, created_by, created_at, updated_at FROM orders
WHERE id = $1 AND venue_id = $2
`

type GetOrderParams struct {
	ID      uuid.UUID `json:"id"`
	VenueID uuid.UUID `json:"venue_id"`
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, arg.ID, arg.VenueID)
	return scanOrder(row)
}

const listOrders = `-- name: ListOrders :many
SELECT id, venue_id, order_number, order_type, table_number, customer_name, subtotal, discount_type, discount_value, discount_amount, tax_rate, tax_amount, total_amount, payment_status, status, placement_state, cart_snapshot, created_by, created_at, updated_at FROM orders
WHERE venue_id = $1
  AND ($2::TEXT IS NULL OR status = $2)
  AND ($3::TEXT IS NULL OR payment_status = $3)
  AND ($4::TEXT IS NULL OR placement_state = $4)
ORDER BY created_at DESC
LIMIT $5 OFFSET $6
`

type ListOrdersParams struct {
	VenueID        uuid.UUID   `json:"venue_id"`
	Status         pgtype.Text `json:"status"`
	PaymentStatus  pgtype.Text `json:"payment_status"`
	PlacementState pgtype.Text `json:"placement_state"`
	Limit          int32       `json:"limit"`
	Offset         int32       `json:"offset"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.VenueID,
		arg.Status,
		arg.PaymentStatus,
		arg.PlacementState,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
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

const updateOrderPlacementState = `-- name: UpdateOrderPlacementState :exec
UPDATE orders SET placement_state = $2, updated_at = now()
WHERE id = $1
`

type UpdateOrderPlacementStateParams struct {
	ID             uuid.UUID `json:"id"`
	PlacementState string    `json:"placement_state"`
}

func (q *Queries) UpdateOrderPlacementState(ctx context.Context, arg UpdateOrderPlacementStateParams) error {
	_, err := q.db.Exec(ctx, updateOrderPlacementState, arg.ID, arg.PlacementState)
	return err
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders SET status = $1, updated_at = now()
WHERE id = $2 AND venue_id = $3 AND status = $4
RETURNING id, venue_id, order_number, order_type, table_number, customer_name, subtotal, discount_type, discount_value, discount_amount, tax_rate, tax_amount, total_amount, payment_status, status, placement_state, cart_snapshot, created_by, created_at, updated_at
`

// Status_2 is the status the caller read; the update is a no-op
// (pgx.ErrNoRows) if another request changed it first.
type UpdateOrderStatusParams struct {
	Status   string    `json:"status"`
	ID       uuid.UUID `json:"id"`
	VenueID  uuid.UUID `json:"venue_id"`
	Status_2 string    `json:"status_2"`
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.Status, arg.ID, arg.VenueID, arg.Status_2)
	return scanOrder(row)
}

const updateOrderPaymentStatus = `-- name: UpdateOrderPaymentStatus :one
UPDATE orders SET payment_status = $1, updated_at = now()
WHERE id = $2 AND venue_id = $3 AND payment_status = $4 AND status <> 'CANCELLED'
RETURNING id, venue_id, order_number, order_type, table_number, customer_name, subtotal, discount_type, discount_value, discount_amount, tax_rate, tax_amount, total_amount, payment_status, status, placement_state, cart_snapshot, created_by, created_at, updated_at
`

type UpdateOrderPaymentStatusParams struct {
	PaymentStatus   string    `json:"payment_status"`
	ID              uuid.UUID `json:"id"`
	VenueID         uuid.UUID `json:"venue_id"`
	PaymentStatus_2 string    `json:"payment_status_2"`
}

func (q *Queries) UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderPaymentStatus, arg.PaymentStatus, arg.ID, arg.VenueID, arg.PaymentStatus_2)
	return scanOrder(row)
}

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.VenueID,
		&i.OrderNumber,
		&i.OrderType,
		&i.TableNumber,
		&i.CustomerName,
		&i.Subtotal,
		&i.DiscountType,
		&i.DiscountValue,
		&i.DiscountAmount,
		&i.TaxRate,
		&i.TaxAmount,
		&i.TotalAmount,
		&i.PaymentStatus,
		&i.Status,
		&i.PlacementState,
		&i.CartSnapshot,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
