package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/kiwari-pos/venue-api/internal/enum"
	"github.com/kiwari-pos/venue-api/internal/pricing"
	"github.com/kiwari-pos/venue-api/internal/settings"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func basicOrderReq(venueID uuid.UUID) PlaceOrderRequest {
	return PlaceOrderRequest{
		VenueID:     venueID,
		CreatedBy:   uuid.New(),
		OrderType:   enum.OrderTypeDineIn,
		TableNumber: "T1",
		Discount:    pricing.Discount{Kind: enum.DiscountTypePercentage, Value: dec("10")},
		Items: []pricing.LineItem{
			{ItemID: "nasi-goreng", UnitPrice: dec("10"), Quantity: 2, ItemDiscountPercent: decimal.Zero},
		},
	}
}

func TestPlaceOrder_EmptyCartRejectedBeforeIO(t *testing.T) {
	store := &mockStore{} // any store call would panic on a nil func
	w := NewOrderWriter(store, tenPercent())

	req := basicOrderReq(uuid.New())
	req.Items = nil

	_, err := w.PlaceOrder(context.Background(), req)
	if !errors.Is(err, ErrEmptyItems) {
		t.Fatalf("expected ErrEmptyItems, got %v", err)
	}
	if !IsValidation(err) {
		t.Fatal("expected a validation error")
	}
}

func TestPlaceOrder_ValidationBeforeIO(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *PlaceOrderRequest)
		wantErr error
	}{
		{"dine-in without table", func(r *PlaceOrderRequest) { r.TableNumber = "" }, ErrTableRequired},
		{"takeaway with table", func(r *PlaceOrderRequest) { r.OrderType = enum.OrderTypeTakeaway }, ErrTableNotAllowed},
		{"unknown order type", func(r *PlaceOrderRequest) { r.OrderType = "DRIVE_THRU" }, ErrInvalidOrderType},
		{"bad payment status", func(r *PlaceOrderRequest) { r.PaymentStatus = "REFUNDED" }, ErrInvalidPaymentStatus},
		{"zero quantity", func(r *PlaceOrderRequest) { r.Items[0].Quantity = 0 }, pricing.ErrInvalidQuantity},
		{"negative price", func(r *PlaceOrderRequest) { r.Items[0].UnitPrice = dec("-1") }, pricing.ErrNegativePrice},
		{"percentage over 100", func(r *PlaceOrderRequest) { r.Discount.Value = dec("150") }, pricing.ErrPercentageRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewOrderWriter(&mockStore{}, tenPercent())
			req := basicOrderReq(uuid.New())
			tt.mutate(&req)

			_, err := w.PlaceOrder(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %T", err)
			}
		})
	}
}

func TestPlaceOrder_UnknownTable(t *testing.T) {
	store := newMemStore()
	store.getRestaurantTableFn = func(ctx context.Context, arg database.GetRestaurantTableParams) (database.RestaurantTable, error) {
		return database.RestaurantTable{}, pgx.ErrNoRows
	}
	w := NewOrderWriter(store, tenPercent())

	_, err := w.PlaceOrder(context.Background(), basicOrderReq(uuid.New()))
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
	if len(store.writes) != 0 {
		t.Fatalf("expected no writes, got %v", store.writes)
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	store := newMemStore()
	w := NewOrderWriter(store, tenPercent())
	venueID := uuid.New()

	p, err := w.PlaceOrder(context.Background(), basicOrderReq(venueID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Outcome != OutcomeSuccess {
		t.Errorf("outcome: got %s", p.Outcome)
	}

	if got := store.writes; len(got) != 3 || got[0] != "order" || got[1] != "item" || got[2] != "ledger" {
		t.Fatalf("expected order -> item -> ledger, got %v", got)
	}

	o := p.Order
	if o.OrderNumber != "ORD-0001" {
		t.Errorf("order number: got %s", o.OrderNumber)
	}
	if !numericEquals(o.Subtotal, "20") || !numericEquals(o.DiscountAmount, "2") ||
		!numericEquals(o.TaxAmount, "1.8") || !numericEquals(o.TotalAmount, "19.8") {
		t.Errorf("unexpected totals: subtotal=%v discount=%v tax=%v total=%v",
			numericToDecimal(o.Subtotal), numericToDecimal(o.DiscountAmount),
			numericToDecimal(o.TaxAmount), numericToDecimal(o.TotalAmount))
	}
	if o.PaymentStatus != enum.PaymentStatusPending {
		t.Errorf("payment status: got %s, want PENDING default", o.PaymentStatus)
	}
	if store.orders[o.ID].PlacementState != enum.PlacementDone || o.PlacementState != enum.PlacementDone {
		t.Errorf("placement state: got %s", store.orders[o.ID].PlacementState)
	}

	if len(p.Items) != 1 || p.Items[0].LineNo != 1 || !numericEquals(p.Items[0].Subtotal, "20") {
		t.Errorf("unexpected items: %+v", p.Items)
	}
	if p.Ledger == nil {
		t.Fatal("expected a ledger entry")
	}
	if p.Ledger.SourceType != enum.LedgerSourceOrder || p.Ledger.SourceRef != o.ID.String() {
		t.Errorf("ledger source: %s/%s", p.Ledger.SourceType, p.Ledger.SourceRef)
	}
	if !numericEquals(p.Ledger.Amount, "19.8") || p.Ledger.Kind != enum.LedgerKindIncome {
		t.Errorf("ledger entry: %+v", p.Ledger)
	}
	if p.Ledger.Description != "Order ORD-0001 (walk-in)" {
		t.Errorf("ledger description: %q", p.Ledger.Description)
	}
}

func TestPlaceOrder_TaxFallbackSurfaced(t *testing.T) {
	store := newMemStore()
	w := NewOrderWriter(store, mockTaxRater{rate: settings.TaxRate{Percent: dec("10"), Fallback: true}})

	p, err := w.PlaceOrder(context.Background(), basicOrderReq(uuid.New()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.TaxRateFallback {
		t.Error("expected TaxRateFallback")
	}
}

func TestPlaceOrder_HeaderFailure(t *testing.T) {
	store := newMemStore()
	dbErr := errors.New("connection reset")
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		return database.Order{}, dbErr
	}
	w := NewOrderWriter(store, tenPercent())

	p, err := w.PlaceOrder(context.Background(), basicOrderReq(uuid.New()))
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PersistenceError, got %v", err)
	}
	if pe.Step != StepHeader || pe.RecordID != uuid.Nil || pe.Outcome() != OutcomeFailed {
		t.Errorf("unexpected persistence error: %+v", pe)
	}
	if !errors.Is(err, dbErr) {
		t.Error("expected underlying error to be wrapped")
	}
	if p != nil {
		t.Error("expected no placement when nothing was created")
	}
}

func TestPlaceOrder_OrderNumberRetry(t *testing.T) {
	store := newMemStore()
	inner := store.createOrderFn
	attempts := 0
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		attempts++
		if attempts < 3 {
			return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_venue_id_order_number_key"}
		}
		return inner(ctx, arg)
	}
	w := NewOrderWriter(store, tenPercent())

	if _, err := w.PlaceOrder(context.Background(), basicOrderReq(uuid.New())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestPlaceOrder_OrderNumberRetryExhausted(t *testing.T) {
	store := newMemStore()
	attempts := 0
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		attempts++
		return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_venue_id_order_number_key"}
	}
	w := NewOrderWriter(store, tenPercent())

	_, err := w.PlaceOrder(context.Background(), basicOrderReq(uuid.New()))
	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.Step != StepHeader {
		t.Fatalf("expected header persistence error, got %v", err)
	}
	if attempts != maxOrderNumberRetries {
		t.Errorf("expected %d attempts, got %d", maxOrderNumberRetries, attempts)
	}
}

func TestPlaceOrder_ItemsFailThenResume(t *testing.T) {
	store := newMemStore()
	inner := store.createOrderItemFn
	failItems := true
	store.createOrderItemFn = func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
		if failItems && arg.LineNo == 2 {
			return database.OrderItem{}, errors.New("timeout")
		}
		return inner(ctx, arg)
	}
	w := NewOrderWriter(store, tenPercent())
	venueID := uuid.New()

	req := basicOrderReq(venueID)
	req.Items = append(req.Items,
		pricing.LineItem{ItemID: "es-teh", UnitPrice: dec("3.5"), Quantity: 3, ItemDiscountPercent: decimal.Zero},
		pricing.LineItem{ItemID: "sate", UnitPrice: dec("25"), Quantity: 1, ItemDiscountPercent: dec("20")},
	)

	p, err := w.PlaceOrder(context.Background(), req)
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PersistenceError, got %v", err)
	}
	if pe.Step != StepItems || pe.Outcome() != OutcomePartial {
		t.Fatalf("expected partial items failure, got %+v", pe)
	}
	if p == nil || p.Outcome != OutcomePartial || pe.RecordID != p.Order.ID {
		t.Fatalf("expected partial placement keyed by order id, got %+v", p)
	}
	if len(p.Items) != 1 || p.Items[0].LineNo != 1 {
		t.Fatalf("expected the written line 1 in the partial placement, got %+v", p.Items)
	}
	orderID := p.Order.ID
	if store.orders[orderID].PlacementState != enum.PlacementHeaderCreated {
		t.Errorf("placement state: got %s", store.orders[orderID].PlacementState)
	}
	if len(store.ledger) != 0 {
		t.Fatal("ledger must not be written when items failed")
	}

	failItems = false
	resumed, err := w.ResumeOrder(context.Background(), venueID, orderID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}

	if n := countWrites(store.writes, "order"); n != 1 {
		t.Errorf("expected exactly one header, got %d", n)
	}
	// line 1 on the first try, lines 2 and 3 on resume
	if n := countWrites(store.writes, "item"); n != 3 {
		t.Errorf("expected 3 item writes, got %d", n)
	}
	if resumed.Outcome != OutcomeSuccess || len(resumed.Items) != 3 {
		t.Fatalf("expected success with 3 items, got %s with %d", resumed.Outcome, len(resumed.Items))
	}
	for i, it := range resumed.Items {
		if it.LineNo != int32(i+1) {
			t.Errorf("item %d: line_no %d", i, it.LineNo)
		}
	}
	if !numericEquals(resumed.Items[2].DiscountAmount, "5") || !numericEquals(resumed.Items[2].Subtotal, "20") {
		t.Errorf("line 3 recomputed from snapshot: %+v", resumed.Items[2])
	}
	if resumed.Ledger == nil || len(store.ledger) != 1 {
		t.Fatal("expected one ledger entry after resume")
	}
	if store.orders[orderID].PlacementState != enum.PlacementDone {
		t.Errorf("placement state: got %s", store.orders[orderID].PlacementState)
	}
}

func TestPlaceOrder_LedgerFailThenResume(t *testing.T) {
	store := newMemStore()
	inner := store.createTransactionFn
	failLedger := true
	store.createTransactionFn = func(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error) {
		if failLedger {
			return database.Transaction{}, errors.New("ledger unavailable")
		}
		return inner(ctx, arg)
	}
	w := NewOrderWriter(store, tenPercent())
	venueID := uuid.New()

	p, err := w.PlaceOrder(context.Background(), basicOrderReq(venueID))
	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.Step != StepLedger {
		t.Fatalf("expected ledger persistence error, got %v", err)
	}
	if len(p.Items) != 1 {
		t.Errorf("items should be in place, got %d", len(p.Items))
	}
	if store.orders[p.Order.ID].PlacementState != enum.PlacementItemsCreated {
		t.Errorf("placement state: got %s", store.orders[p.Order.ID].PlacementState)
	}

	failLedger = false
	resumed, err := w.ResumeOrder(context.Background(), venueID, p.Order.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if countWrites(store.writes, "item") != 1 || countWrites(store.writes, "order") != 1 {
		t.Errorf("resume must not rewrite header or items: %v", store.writes)
	}
	if resumed.Ledger == nil || resumed.Outcome != OutcomeSuccess {
		t.Fatal("expected ledger entry after resume")
	}
}

func TestResumeOrder_DoneIsNoOp(t *testing.T) {
	store := newMemStore()
	w := NewOrderWriter(store, tenPercent())
	venueID := uuid.New()

	p, err := w.PlaceOrder(context.Background(), basicOrderReq(venueID))
	if err != nil {
		t.Fatal(err)
	}
	before := len(store.writes)

	again, err := w.ResumeOrder(context.Background(), venueID, p.Order.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(store.writes) != before {
		t.Errorf("resume of a finished order wrote %v", store.writes[before:])
	}
	if again.Ledger == nil || again.Ledger.ID != p.Ledger.ID {
		t.Error("expected the original ledger entry")
	}
}

func TestResumeOrder_NotFound(t *testing.T) {
	w := NewOrderWriter(newMemStore(), tenPercent())

	_, err := w.ResumeOrder(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestResumeOrder_OtherVenue(t *testing.T) {
	store := newMemStore()
	w := NewOrderWriter(store, tenPercent())

	p, err := w.PlaceOrder(context.Background(), basicOrderReq(uuid.New()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.ResumeOrder(context.Background(), uuid.New(), p.Order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound across venues, got %v", err)
	}
}

func TestResumeOrder_CancelledPartial(t *testing.T) {
	store := newMemStore()
	id := uuid.New()
	venueID := uuid.New()
	store.orders[id] = database.Order{
		ID:             id,
		VenueID:        venueID,
		Status:         enum.OrderStatusCancelled,
		PlacementState: enum.PlacementHeaderCreated,
		TotalAmount:    makeNumeric("0"),
		CartSnapshot:   []byte(`[]`),
	}
	w := NewOrderWriter(store, tenPercent())

	if _, err := w.ResumeOrder(context.Background(), venueID, id); !errors.Is(err, ErrOrderCancelled) {
		t.Fatalf("expected ErrOrderCancelled, got %v", err)
	}
}

func TestPlaceOrder_PlacementStateUpdateFailureIsNotFatal(t *testing.T) {
	store := newMemStore()
	store.updateOrderPlacementStateFn = func(ctx context.Context, arg database.UpdateOrderPlacementStateParams) error {
		return errors.New("deadlock detected")
	}
	w := NewOrderWriter(store, tenPercent())

	p, err := w.PlaceOrder(context.Background(), basicOrderReq(uuid.New()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Outcome != OutcomeSuccess || p.Ledger == nil {
		t.Fatal("expected success despite state bookkeeping failure")
	}
}

func TestPlaceOrder_DiscountAndTakeaway(t *testing.T) {
	store := newMemStore()
	w := NewOrderWriter(store, tenPercent())

	req := basicOrderReq(uuid.New())
	req.OrderType = enum.OrderTypeTakeaway
	req.TableNumber = ""
	req.CustomerName = "Budi"
	req.PaymentStatus = enum.PaymentStatusPaid
	req.Items = []pricing.LineItem{{ItemID: "a", UnitPrice: dec("50"), Quantity: 1, ItemDiscountPercent: dec("20")}}
	req.Discount = pricing.Discount{Kind: enum.DiscountTypeFixed, Value: dec("100")}

	p, err := w.PlaceOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o := p.Order
	if o.TableNumber.Valid {
		t.Error("takeaway order must not carry a table number")
	}
	if o.CustomerName.String != "Budi" || o.PaymentStatus != enum.PaymentStatusPaid {
		t.Errorf("unexpected header: %+v", o)
	}
	if !numericEquals(o.DiscountAmount, "50") || !numericEquals(o.TotalAmount, "0") {
		t.Errorf("discount=%v total=%v", numericToDecimal(o.DiscountAmount), numericToDecimal(o.TotalAmount))
	}
	if !numericEquals(o.DiscountValue, "50") || o.DiscountType != enum.DiscountTypeFixed {
		t.Errorf("discount not stored: %s %v", o.DiscountType, numericToDecimal(o.DiscountValue))
	}
	if p.Ledger.Description != "Order ORD-0001 (Budi)" {
		t.Errorf("ledger description: %q", p.Ledger.Description)
	}
}

func TestPlaceOrder_FixedDiscountStoredAsAppliedAmount(t *testing.T) {
	store := newMemStore()
	w := NewOrderWriter(store, tenPercent())
	venueID := uuid.New()

	req := basicOrderReq(venueID)
	req.Discount = pricing.Discount{Kind: enum.DiscountTypeFixed, Value: dec("99999999999999999999")}

	p, err := w.PlaceOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o := p.Order
	if !numericEquals(o.DiscountValue, p.Priced.RawSubtotal.String()) {
		t.Errorf("discount_value: got %v, want %s", numericToDecimal(o.DiscountValue), p.Priced.RawSubtotal)
	}
	if !numericEquals(o.TotalAmount, "0") {
		t.Errorf("total: got %v", numericToDecimal(o.TotalAmount))
	}

	// repricing from the stored header matches the original placement
	resumed, err := w.ResumeOrder(context.Background(), venueID, o.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !resumed.Priced.Discount.Equal(p.Priced.Discount) || !resumed.Priced.Total.Equal(p.Priced.Total) {
		t.Errorf("resume repriced to discount=%s total=%s", resumed.Priced.Discount, resumed.Priced.Total)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	lines := []pricing.LineItem{
		{ItemID: "x", UnitPrice: dec("0.335"), Quantity: 3, ItemDiscountPercent: dec("12.5")},
	}
	b, err := encodeSnapshot(lines)
	if err != nil {
		t.Fatal(err)
	}
	got, err := decodeSnapshot(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].UnitPrice.Equal(lines[0].UnitPrice) ||
		!got[0].ItemDiscountPercent.Equal(lines[0].ItemDiscountPercent) || got[0].Quantity != 3 {
		t.Fatalf("snapshot changed: %+v", got)
	}
}

func TestQuote(t *testing.T) {
	w := NewOrderWriter(&mockStore{}, tenPercent())

	priced, fallback, err := w.Quote(context.Background(), uuid.New(),
		[]pricing.LineItem{{ItemID: "a", UnitPrice: dec("10"), Quantity: 2, ItemDiscountPercent: decimal.Zero}},
		pricing.Discount{Kind: enum.DiscountTypePercentage, Value: dec("10")})
	if err != nil {
		t.Fatal(err)
	}
	if fallback || !priced.Total.Equal(dec("19.8")) {
		t.Errorf("total %s fallback %v", priced.Total, fallback)
	}
}
