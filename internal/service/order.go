package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/kiwari-pos/venue-api/internal/enum"
	"github.com/kiwari-pos/venue-api/internal/ledger"
	"github.com/kiwari-pos/venue-api/internal/pricing"
	"github.com/kiwari-pos/venue-api/internal/settings"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// OrderStore defines the DB methods needed to place orders.
// Satisfied by *database.Queries.
type OrderStore interface {
	ledger.Store
	GetRestaurantTable(ctx context.Context, arg database.GetRestaurantTableParams) (database.RestaurantTable, error)
	GetNextOrderNumber(ctx context.Context, venueID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	UpdateOrderPlacementState(ctx context.Context, arg database.UpdateOrderPlacementStateParams) error
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// TaxRater supplies the tax rate for a venue.
type TaxRater interface {
	TaxRate(ctx context.Context, venueID uuid.UUID) settings.TaxRate
}

// PlaceOrderRequest is the cart and header data for a new order.
type PlaceOrderRequest struct {
	VenueID       uuid.UUID
	CreatedBy     uuid.UUID
	OrderType     string
	TableNumber   string
	CustomerName  string
	PaymentStatus string
	Discount      pricing.Discount
	Items         []pricing.LineItem
}

// OrderPlacement is what a placement or resume produced so far. On a partial
// failure it is returned alongside the *PersistenceError.
type OrderPlacement struct {
	Order           database.Order
	Items           []database.OrderItem
	Ledger          *database.Transaction
	Priced          pricing.PricedOrder
	TaxRateFallback bool
	Outcome         string
}

// snapshotLine is the JSON form of a cart line stored on the order header.
type snapshotLine struct {
	ItemID              string          `json:"item_id"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Quantity            int32           `json:"quantity"`
	ItemDiscountPercent decimal.Decimal `json:"item_discount_percent"`
}

// OrderWriter places orders as three sequential writes: header, line items,
// ledger entry. There is no surrounding transaction; a failure leaves the
// earlier writes in place and the header's placement_state says how far it
// got, so ResumeOrder can finish the job.
type OrderWriter struct {
	store OrderStore
	tax   TaxRater
}

// NewOrderWriter creates a new OrderWriter.
func NewOrderWriter(store OrderStore, tax TaxRater) *OrderWriter {
	return &OrderWriter{store: store, tax: tax}
}

// Quote prices a cart with the venue's current tax rate without writing.
func (w *OrderWriter) Quote(ctx context.Context, venueID uuid.UUID, items []pricing.LineItem, discount pricing.Discount) (pricing.PricedOrder, bool, error) {
	rate := w.tax.TaxRate(ctx, venueID)
	priced, err := pricing.Quote(items, discount, rate.Percent)
	return priced, rate.Fallback, err
}

// PlaceOrder validates and prices the cart, then writes it.
//
// Errors: validation failures come back before any write. A
// *PersistenceError names the failed step; for the items and ledger steps
// the returned placement carries the created order for a later ResumeOrder.
func (w *OrderWriter) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderPlacement, error) {
	if err := validatePlaceOrder(req); err != nil {
		return nil, err
	}
	if err := pricing.Validate(req.Items, req.Discount, decimal.Zero); err != nil {
		return nil, err
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = enum.PaymentStatusPending
	}

	if req.OrderType == enum.OrderTypeDineIn {
		_, err := w.store.GetRestaurantTable(ctx, database.GetRestaurantTableParams{
			VenueID:     req.VenueID,
			TableNumber: req.TableNumber,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &ValidationError{Field: "table_number", Err: ErrTableNotFound}
			}
			return nil, &PersistenceError{Step: StepHeader, Err: fmt.Errorf("get table: %w", err)}
		}
	}

	rate := w.tax.TaxRate(ctx, req.VenueID)
	priced := pricing.Price(req.Items, req.Discount, rate.Percent)

	snapshot, err := encodeSnapshot(priced.LineItems)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}

	var order database.Order
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		order, lastErr = w.createHeader(ctx, req, priced, snapshot)
		if lastErr == nil || !isOrderNumberConflict(lastErr) {
			break
		}
	}
	if lastErr != nil {
		return nil, &PersistenceError{Step: StepHeader, Err: lastErr}
	}

	p := &OrderPlacement{Order: order, Priced: priced, TaxRateFallback: rate.Fallback}
	return w.complete(ctx, p)
}

// ResumeOrder finishes a placement that stopped after its header was created.
// It only creates the line items and ledger entry that do not exist yet, so
// calling it on a finished order changes nothing.
func (w *OrderWriter) ResumeOrder(ctx context.Context, venueID, orderID uuid.UUID) (*OrderPlacement, error) {
	order, err := w.store.GetOrder(ctx, database.GetOrderParams{ID: orderID, VenueID: venueID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status == enum.OrderStatusCancelled && order.PlacementState != enum.PlacementDone {
		return nil, ErrOrderCancelled
	}

	lines, err := decodeSnapshot(order.CartSnapshot)
	if err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	discount := pricing.Discount{Kind: order.DiscountType, Value: numericToDecimal(order.DiscountValue)}
	priced := pricing.Price(lines, discount, numericToDecimal(order.TaxRate))

	return w.complete(ctx, &OrderPlacement{Order: order, Priced: priced})
}

// complete runs the items and ledger steps for a created header.
func (w *OrderWriter) complete(ctx context.Context, p *OrderPlacement) (*OrderPlacement, error) {
	orderID := p.Order.ID

	items, err := w.createMissingItems(ctx, orderID, p.Priced)
	p.Items = items
	if err != nil {
		p.Outcome = OutcomePartial
		return p, &PersistenceError{Step: StepItems, RecordID: orderID, Err: err}
	}
	w.advance(ctx, p, enum.PlacementItemsCreated)

	entry, _, err := ledger.RecordIncome(ctx, w.store, ledger.Income{
		VenueID:     p.Order.VenueID,
		Date:        p.Order.CreatedAt,
		Amount:      numericToDecimal(p.Order.TotalAmount),
		Description: fmt.Sprintf("Order %s (%s)", p.Order.OrderNumber, customerLabel(p.Order.CustomerName.String)),
		Category:    enum.LedgerCategoryOrderSales,
		SourceType:  enum.LedgerSourceOrder,
		SourceRef:   orderID.String(),
	})
	if err != nil {
		p.Outcome = OutcomePartial
		return p, &PersistenceError{Step: StepLedger, RecordID: orderID, Err: err}
	}
	p.Ledger = &entry
	w.advance(ctx, p, enum.PlacementLedgerRecorded)
	w.advance(ctx, p, enum.PlacementDone)

	p.Outcome = OutcomeSuccess
	return p, nil
}

func (w *OrderWriter) createHeader(ctx context.Context, req PlaceOrderRequest, priced pricing.PricedOrder, snapshot []byte) (database.Order, error) {
	nextNum, err := w.store.GetNextOrderNumber(ctx, req.VenueID)
	if err != nil {
		return database.Order{}, fmt.Errorf("get next order number: %w", err)
	}

	// A fixed discount is stored as the amount applied, which never exceeds
	// the subtotal column and reprices identically on resume.
	discountValue := req.Discount.Value
	switch priced.DiscountKind {
	case enum.DiscountTypeNone:
		discountValue = decimal.Zero
	case enum.DiscountTypeFixed:
		discountValue = priced.OrderDiscountAmount
	}

	order, err := w.store.CreateOrder(ctx, database.CreateOrderParams{
		VenueID:        req.VenueID,
		OrderNumber:    fmt.Sprintf("ORD-%04d", nextNum),
		OrderType:      req.OrderType,
		TableNumber:    textOrNull(req.TableNumber),
		CustomerName:   textOrNull(req.CustomerName),
		Subtotal:       decimalToNumeric(priced.RawSubtotal),
		DiscountType:   priced.DiscountKind,
		DiscountValue:  decimalToNumeric(discountValue),
		DiscountAmount: decimalToNumeric(priced.Discount),
		TaxRate:        decimalToNumeric(priced.TaxRate),
		TaxAmount:      decimalToNumeric(priced.Tax),
		TotalAmount:    decimalToNumeric(priced.Total),
		PaymentStatus:  req.PaymentStatus,
		CartSnapshot:   snapshot,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// createMissingItems writes the line items whose line_no is not stored yet
// and returns the full item list in line order.
func (w *OrderWriter) createMissingItems(ctx context.Context, orderID uuid.UUID, priced pricing.PricedOrder) ([]database.OrderItem, error) {
	existing, err := w.store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	have := make(map[int32]bool, len(existing))
	for _, it := range existing {
		have[it.LineNo] = true
	}

	created := false
	for i, li := range priced.LineItems {
		lineNo := int32(i + 1)
		if have[lineNo] {
			continue
		}
		item, err := w.store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:             orderID,
			LineNo:              lineNo,
			ItemID:              li.ItemID,
			UnitPrice:           decimalToNumeric(li.UnitPrice),
			Quantity:            li.Quantity,
			ItemDiscountPercent: decimalToNumeric(li.ItemDiscountPercent),
			DiscountAmount:      decimalToNumeric(priced.LineDiscounts[i]),
			Subtotal:            decimalToNumeric(priced.LineSubtotals[i]),
		})
		if err != nil {
			if isLineConflict(err) {
				// Written by a concurrent resume.
				continue
			}
			sort.Slice(existing, func(a, b int) bool { return existing[a].LineNo < existing[b].LineNo })
			return existing, fmt.Errorf("item[%d]: create order item: %w", i, err)
		}
		existing = append(existing, item)
		created = true
	}

	if !created && len(existing) == len(priced.LineItems) {
		return existing, nil
	}
	items, err := w.store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	if len(items) != len(priced.LineItems) {
		return items, fmt.Errorf("order has %d of %d items", len(items), len(priced.LineItems))
	}
	return items, nil
}

// advance records progress on the header. The record inspection in
// ResumeOrder does not depend on it, so a failed update is only logged.
func (w *OrderWriter) advance(ctx context.Context, p *OrderPlacement, state string) {
	if placementRank[p.Order.PlacementState] >= placementRank[state] {
		return
	}
	err := w.store.UpdateOrderPlacementState(ctx, database.UpdateOrderPlacementStateParams{
		ID:             p.Order.ID,
		PlacementState: state,
	})
	if err != nil {
		log.Printf("WARN: advance order %s to %s: %v", p.Order.ID, state, err)
		return
	}
	p.Order.PlacementState = state
}

var placementRank = map[string]int{
	enum.PlacementHeaderCreated:  1,
	enum.PlacementItemsCreated:   2,
	enum.PlacementLedgerRecorded: 3,
	enum.PlacementDone:           4,
}

// --- Helpers ---

func validatePlaceOrder(req PlaceOrderRequest) error {
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Err: ErrEmptyItems}
	}
	switch req.OrderType {
	case enum.OrderTypeDineIn:
		if req.TableNumber == "" {
			return &ValidationError{Field: "table_number", Err: ErrTableRequired}
		}
	case enum.OrderTypeTakeaway:
		if req.TableNumber != "" {
			return &ValidationError{Field: "table_number", Err: ErrTableNotAllowed}
		}
	default:
		return &ValidationError{Field: "order_type", Err: ErrInvalidOrderType}
	}
	switch req.PaymentStatus {
	case "", enum.PaymentStatusPending, enum.PaymentStatusPaid:
	default:
		return &ValidationError{Field: "payment_status", Err: ErrInvalidPaymentStatus}
	}
	return nil
}

func customerLabel(name string) string {
	if name == "" {
		return enum.WalkInCustomer
	}
	return name
}

func encodeSnapshot(lines []pricing.LineItem) ([]byte, error) {
	out := make([]snapshotLine, len(lines))
	for i, li := range lines {
		out[i] = snapshotLine{
			ItemID:              li.ItemID,
			UnitPrice:           li.UnitPrice,
			Quantity:            li.Quantity,
			ItemDiscountPercent: li.ItemDiscountPercent,
		}
	}
	return json.Marshal(out)
}

func decodeSnapshot(b []byte) ([]pricing.LineItem, error) {
	var in []snapshotLine
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, err
	}
	lines := make([]pricing.LineItem, len(in))
	for i, s := range in {
		lines[i] = pricing.LineItem{
			ItemID:              s.ItemID,
			UnitPrice:           s.UnitPrice,
			Quantity:            s.Quantity,
			ItemDiscountPercent: s.ItemDiscountPercent,
		}
	}
	return lines, nil
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_venue_id_order_number_key"
	}
	return false
}

func isLineConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "order_items_order_id_line_no_key"
	}
	return false
}
