package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/kiwari-pos/venue-api/internal/settings"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockStore implements OrderStore and BookingStore with configurable
// behavior. newMemStore fills every function with an in-memory default;
// tests override the functions they care about.
type mockStore struct {
	getRestaurantTableFn              func(ctx context.Context, arg database.GetRestaurantTableParams) (database.RestaurantTable, error)
	getNextOrderNumberFn              func(ctx context.Context, venueID uuid.UUID) (int32, error)
	createOrderFn                     func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	getOrderFn                        func(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	updateOrderPlacementStateFn       func(ctx context.Context, arg database.UpdateOrderPlacementStateParams) error
	createOrderItemFn                 func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	listOrderItemsByOrderFn           func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	getTransactionBySourceFn          func(ctx context.Context, arg database.GetTransactionBySourceParams) (database.Transaction, error)
	getNextTransactionCodeFn          func(ctx context.Context, prefix string) (string, error)
	createTransactionFn               func(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error)
	getHallFn                         func(ctx context.Context, arg database.GetHallParams) (database.Hall, error)
	getHallServicesByIDsFn            func(ctx context.Context, arg database.GetHallServicesByIDsParams) ([]database.HallService, error)
	listHallBookingsByHallDateFn      func(ctx context.Context, arg database.ListHallBookingsByHallDateParams) ([]database.HallBooking, error)
	createHallBookingFn               func(ctx context.Context, arg database.CreateHallBookingParams) (database.HallBooking, error)
	getHallBookingFn                  func(ctx context.Context, arg database.GetHallBookingParams) (database.HallBooking, error)
	updateHallBookingPlacementStateFn func(ctx context.Context, arg database.UpdateHallBookingPlacementStateParams) error

	orders   map[uuid.UUID]database.Order
	items    map[uuid.UUID][]database.OrderItem
	bookings map[uuid.UUID]database.HallBooking
	ledger   map[string]database.Transaction
	writes   []string
}

func (m *mockStore) GetRestaurantTable(ctx context.Context, arg database.GetRestaurantTableParams) (database.RestaurantTable, error) {
	return m.getRestaurantTableFn(ctx, arg)
}
func (m *mockStore) GetNextOrderNumber(ctx context.Context, venueID uuid.UUID) (int32, error) {
	return m.getNextOrderNumberFn(ctx, venueID)
}
func (m *mockStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockStore) GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
	return m.getOrderFn(ctx, arg)
}
func (m *mockStore) UpdateOrderPlacementState(ctx context.Context, arg database.UpdateOrderPlacementStateParams) error {
	return m.updateOrderPlacementStateFn(ctx, arg)
}
func (m *mockStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return m.listOrderItemsByOrderFn(ctx, orderID)
}
func (m *mockStore) GetTransactionBySource(ctx context.Context, arg database.GetTransactionBySourceParams) (database.Transaction, error) {
	return m.getTransactionBySourceFn(ctx, arg)
}
func (m *mockStore) GetNextTransactionCode(ctx context.Context, prefix string) (string, error) {
	return m.getNextTransactionCodeFn(ctx, prefix)
}
func (m *mockStore) CreateTransaction(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error) {
	return m.createTransactionFn(ctx, arg)
}
func (m *mockStore) GetHall(ctx context.Context, arg database.GetHallParams) (database.Hall, error) {
	return m.getHallFn(ctx, arg)
}
func (m *mockStore) GetHallServicesByIDs(ctx context.Context, arg database.GetHallServicesByIDsParams) ([]database.HallService, error) {
	return m.getHallServicesByIDsFn(ctx, arg)
}
func (m *mockStore) ListHallBookingsByHallDate(ctx context.Context, arg database.ListHallBookingsByHallDateParams) ([]database.HallBooking, error) {
	return m.listHallBookingsByHallDateFn(ctx, arg)
}
func (m *mockStore) CreateHallBooking(ctx context.Context, arg database.CreateHallBookingParams) (database.HallBooking, error) {
	return m.createHallBookingFn(ctx, arg)
}
func (m *mockStore) GetHallBooking(ctx context.Context, arg database.GetHallBookingParams) (database.HallBooking, error) {
	return m.getHallBookingFn(ctx, arg)
}
func (m *mockStore) UpdateHallBookingPlacementState(ctx context.Context, arg database.UpdateHallBookingPlacementStateParams) error {
	return m.updateHallBookingPlacementStateFn(ctx, arg)
}

// mockTaxRater returns a fixed rate.
type mockTaxRater struct {
	rate settings.TaxRate
}

func (m mockTaxRater) TaxRate(ctx context.Context, venueID uuid.UUID) settings.TaxRate {
	return m.rate
}

func tenPercent() mockTaxRater {
	return mockTaxRater{rate: settings.TaxRate{Percent: decimal.NewFromInt(10)}}
}

// newMemStore returns a mockStore backed by maps, behaving like the real
// queries for the rows the writers touch.
func newMemStore() *mockStore {
	m := &mockStore{
		orders:   map[uuid.UUID]database.Order{},
		items:    map[uuid.UUID][]database.OrderItem{},
		bookings: map[uuid.UUID]database.HallBooking{},
		ledger:   map[string]database.Transaction{},
	}
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	m.getRestaurantTableFn = func(ctx context.Context, arg database.GetRestaurantTableParams) (database.RestaurantTable, error) {
		return database.RestaurantTable{ID: uuid.New(), VenueID: arg.VenueID, TableNumber: arg.TableNumber, IsActive: true}, nil
	}
	m.getNextOrderNumberFn = func(ctx context.Context, venueID uuid.UUID) (int32, error) {
		return int32(len(m.orders) + 1), nil
	}
	m.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		m.writes = append(m.writes, "order")
		o := database.Order{
			ID:             uuid.New(),
			VenueID:        arg.VenueID,
			OrderNumber:    arg.OrderNumber,
			OrderType:      arg.OrderType,
			TableNumber:    arg.TableNumber,
			CustomerName:   arg.CustomerName,
			Subtotal:       arg.Subtotal,
			DiscountType:   arg.DiscountType,
			DiscountValue:  arg.DiscountValue,
			DiscountAmount: arg.DiscountAmount,
			TaxRate:        arg.TaxRate,
			TaxAmount:      arg.TaxAmount,
			TotalAmount:    arg.TotalAmount,
			PaymentStatus:  arg.PaymentStatus,
			Status:         "PROCESSING",
			PlacementState: "HEADER_CREATED",
			CartSnapshot:   arg.CartSnapshot,
			CreatedBy:      arg.CreatedBy,
			CreatedAt:      created,
			UpdatedAt:      created,
		}
		m.orders[o.ID] = o
		return o, nil
	}
	m.getOrderFn = func(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
		o, ok := m.orders[arg.ID]
		if !ok || o.VenueID != arg.VenueID {
			return database.Order{}, pgx.ErrNoRows
		}
		return o, nil
	}
	m.updateOrderPlacementStateFn = func(ctx context.Context, arg database.UpdateOrderPlacementStateParams) error {
		o := m.orders[arg.ID]
		o.PlacementState = arg.PlacementState
		m.orders[arg.ID] = o
		return nil
	}
	m.createOrderItemFn = func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
		m.writes = append(m.writes, "item")
		it := database.OrderItem{
			ID:                  uuid.New(),
			OrderID:             arg.OrderID,
			LineNo:              arg.LineNo,
			ItemID:              arg.ItemID,
			UnitPrice:           arg.UnitPrice,
			Quantity:            arg.Quantity,
			ItemDiscountPercent: arg.ItemDiscountPercent,
			DiscountAmount:      arg.DiscountAmount,
			Subtotal:            arg.Subtotal,
		}
		m.items[arg.OrderID] = append(m.items[arg.OrderID], it)
		return it, nil
	}
	m.listOrderItemsByOrderFn = func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
		out := append([]database.OrderItem{}, m.items[orderID]...)
		sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
		return out, nil
	}
	m.getTransactionBySourceFn = func(ctx context.Context, arg database.GetTransactionBySourceParams) (database.Transaction, error) {
		tx, ok := m.ledger[arg.SourceType+"/"+arg.SourceRef]
		if !ok {
			return database.Transaction{}, pgx.ErrNoRows
		}
		return tx, nil
	}
	m.getNextTransactionCodeFn = func(ctx context.Context, prefix string) (string, error) {
		highest := ""
		for _, tx := range m.ledger {
			c := tx.TransactionCode
			if len(c) > len(highest) || (len(c) == len(highest) && c > highest) {
				highest = c
			}
		}
		return highest, nil
	}
	m.createTransactionFn = func(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error) {
		m.writes = append(m.writes, "ledger")
		tx := database.Transaction{
			ID:              uuid.New(),
			VenueID:         arg.VenueID,
			TransactionCode: arg.TransactionCode,
			TransactionDate: arg.TransactionDate,
			Description:     arg.Description,
			Amount:          arg.Amount,
			Kind:            arg.Kind,
			Category:        arg.Category,
			SourceType:      arg.SourceType,
			SourceRef:       arg.SourceRef,
		}
		m.ledger[arg.SourceType+"/"+arg.SourceRef] = tx
		return tx, nil
	}
	m.getHallFn = func(ctx context.Context, arg database.GetHallParams) (database.Hall, error) {
		return database.Hall{ID: arg.ID, VenueID: arg.VenueID, Name: "Ballroom", Capacity: 100, IsActive: true}, nil
	}
	m.getHallServicesByIDsFn = func(ctx context.Context, arg database.GetHallServicesByIDsParams) ([]database.HallService, error) {
		out := make([]database.HallService, len(arg.Ids))
		for i, id := range arg.Ids {
			out[i] = database.HallService{ID: id, VenueID: arg.VenueID, Name: "Projector", IsActive: true}
		}
		return out, nil
	}
	m.listHallBookingsByHallDateFn = func(ctx context.Context, arg database.ListHallBookingsByHallDateParams) ([]database.HallBooking, error) {
		var out []database.HallBooking
		for _, b := range m.bookings {
			if b.HallID == arg.HallID && b.BookingDate.Time.Equal(arg.BookingDate.Time) && b.Status != "CANCELED" {
				out = append(out, b)
			}
		}
		return out, nil
	}
	m.createHallBookingFn = func(ctx context.Context, arg database.CreateHallBookingParams) (database.HallBooking, error) {
		m.writes = append(m.writes, "booking")
		b := database.HallBooking{
			ID:                 uuid.New(),
			VenueID:            arg.VenueID,
			HallID:             arg.HallID,
			BookingDate:        arg.BookingDate,
			StartMin:           arg.StartMin,
			EndMin:             arg.EndMin,
			CustomerName:       arg.CustomerName,
			Attendees:          arg.Attendees,
			AdditionalServices: arg.AdditionalServices,
			Status:             "PENDING",
			TotalAmount:        arg.TotalAmount,
			PlacementState:     "HEADER_CREATED",
			CreatedBy:          arg.CreatedBy,
			CreatedAt:          created,
		}
		m.bookings[b.ID] = b
		return b, nil
	}
	m.getHallBookingFn = func(ctx context.Context, arg database.GetHallBookingParams) (database.HallBooking, error) {
		b, ok := m.bookings[arg.ID]
		if !ok || b.VenueID != arg.VenueID {
			return database.HallBooking{}, pgx.ErrNoRows
		}
		return b, nil
	}
	m.updateHallBookingPlacementStateFn = func(ctx context.Context, arg database.UpdateHallBookingPlacementStateParams) error {
		b := m.bookings[arg.ID]
		b.PlacementState = arg.PlacementState
		m.bookings[arg.ID] = b
		return nil
	}
	return m
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

func countWrites(writes []string, kind string) int {
	n := 0
	for _, w := range writes {
		if w == kind {
			n++
		}
	}
	return n
}
