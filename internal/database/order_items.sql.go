// source: order_items.sql

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (
    order_id, line_no, item_id, unit_price, quantity,
    item_discount_percent, discount_amount, subtotal
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, order_id, line_no, item_id, unit_price, quantity, item_discount_percent, discount_amount, subtotal, created_at
`

type CreateOrderItemParams struct {
	OrderID             uuid.UUID      `json:"order_id"`
	LineNo              int32          `json:"line_no"`
	ItemID              string         `json:"item_id"`
	UnitPrice           pgtype.Numeric `json:"unit_price"`
	Quantity            int32          `json:"quantity"`
	ItemDiscountPercent pgtype.Numeric `json:"item_discount_percent"`
	DiscountAmount      pgtype.Numeric `json:"discount_amount"`
	Subtotal            pgtype.Numeric `json:"subtotal"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.LineNo,
		arg.ItemID,
		arg.UnitPrice,
		arg.Quantity,
		arg.ItemDiscountPercent,
		arg.DiscountAmount,
		arg.Subtotal,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.LineNo,
		&i.ItemID,
		&i.UnitPrice,
		&i.Quantity,
		&i.ItemDiscountPercent,
		&i.DiscountAmount,
		&i.Subtotal,
		&i.CreatedAt,
	)
	return i, err
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT id, order_id, line_no, item_id, unit_price, quantity, item_discount_percent, discount_amount, subtotal, created_at FROM order_items
WHERE order_id = $1
ORDER BY line_no
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.LineNo,
			&i.ItemID,
			&i.UnitPrice,
			&i.Quantity,
			&i.ItemDiscountPercent,
			&i.DiscountAmount,
			&i.Subtotal,
			&i.CreatedAt,
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
