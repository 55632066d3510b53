package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/kiwari-pos/venue-api/internal/enum"
	"github.com/kiwari-pos/venue-api/internal/middleware"
	"github.com/kiwari-pos/venue-api/internal/pricing"
	"github.com/kiwari-pos/venue-api/internal/service"
	"github.com/kiwari-pos/venue-api/internal/ws"
	"github.com/shopspring/decimal"
)

// OrderPlacer is satisfied by *service.OrderWriter.
type OrderPlacer interface {
	Quote(ctx context.Context, venueID uuid.UUID, items []pricing.LineItem, discount pricing.Discount) (pricing.PricedOrder, bool, error)
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*service.OrderPlacement, error)
	ResumeOrder(ctx context.Context, venueID, orderID uuid.UUID) (*service.OrderPlacement, error)
}

// OrderStore defines the database methods needed by order read/update handlers.
// Satisfied by *database.Queries.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, arg database.UpdateOrderPaymentStatusParams) (database.Order, error)
}

// EventPublisher pushes realtime events to a venue. Satisfied by *ws.Hub.
type EventPublisher interface {
	Publish(venueID uuid.UUID, eventType string, payload any)
}

type OrderHandler struct {
	svc    OrderPlacer
	store  OrderStore
	events EventPublisher
}

func NewOrderHandler(svc OrderPlacer, store OrderStore, events EventPublisher) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, events: events}
}

// RegisterRoutes registers order endpoints. Expected to be mounted inside a
// venue-scoped subrouter: /venues/{vid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/quote", h.Quote)
	r.Post("/", h.Place)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/resume", h.Resume)
	r.Patch("/{id}/payment", h.UpdatePayment)
}

// RegisterManagerRoutes registers the order endpoints restricted to owners
// and managers, on the same subrouter as RegisterRoutes.
func (h *OrderHandler) RegisterManagerRoutes(r chi.Router) {
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type cartRequest struct {
	DiscountType  string            `json:"discount_type"`
	DiscountValue decimal.Decimal   `json:"discount_value"`
	Items         []cartItemRequest `json:"items"`
}

type cartItemRequest struct {
	ItemID              string          `json:"item_id"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Quantity            int32           `json:"quantity"`
	ItemDiscountPercent decimal.Decimal `json:"item_discount_percent"`
}

type placeOrderRequest struct {
	cartRequest
	OrderType     string `json:"order_type"`
	TableNumber   string `json:"table_number"`
	CustomerName  string `json:"customer_name"`
	PaymentStatus string `json:"payment_status"`
}

type quoteResponse struct {
	pricing.Rounded
	Lines           []quoteLineResponse `json:"lines"`
	TaxRateFallback bool                `json:"tax_rate_fallback"`
}

type quoteLineResponse struct {
	ItemID         string `json:"item_id"`
	DiscountAmount string `json:"discount_amount"`
	Subtotal       string `json:"subtotal"`
}

type orderResponse struct {
	ID             uuid.UUID           `json:"id"`
	VenueID        uuid.UUID           `json:"venue_id"`
	OrderNumber    string              `json:"order_number"`
	OrderType      string              `json:"order_type"`
	TableNumber    *string             `json:"table_number"`
	CustomerName   *string             `json:"customer_name"`
	Subtotal       string              `json:"subtotal"`
	DiscountType   string              `json:"discount_type"`
	DiscountValue  string              `json:"discount_value"`
	DiscountAmount string              `json:"discount_amount"`
	TaxRate        string              `json:"tax_rate"`
	TaxAmount      string              `json:"tax_amount"`
	TotalAmount    string              `json:"total_amount"`
	PaymentStatus  string              `json:"payment_status"`
	Status         string              `json:"status"`
	PlacementState string              `json:"placement_state"`
	CreatedBy      uuid.UUID           `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Items          []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID                  uuid.UUID `json:"id"`
	LineNo              int32     `json:"line_no"`
	ItemID              string    `json:"item_id"`
	UnitPrice           string    `json:"unit_price"`
	Quantity            int32     `json:"quantity"`
	ItemDiscountPercent string    `json:"item_discount_percent"`
	DiscountAmount      string    `json:"discount_amount"`
	Subtotal            string    `json:"subtotal"`
}

type ledgerEntryResponse struct {
	ID              uuid.UUID `json:"id"`
	TransactionCode string    `json:"transaction_code"`
	TransactionDate string    `json:"transaction_date"`
	Description     string    `json:"description"`
	Amount          string    `json:"amount"`
	Kind            string    `json:"kind"`
	Category        string    `json:"category"`
	SourceType      string    `json:"source_type"`
	SourceRef       string    `json:"source_ref"`
}

// orderPlacementResponse is returned by place and resume. State mirrors the
// placement outcome: success, or partial with ResumeURL set when there is
// work left.
type orderPlacementResponse struct {
	State           string               `json:"state"`
	Order           orderResponse        `json:"order"`
	Ledger          *ledgerEntryResponse `json:"ledger"`
	TaxRateFallback bool                 `json:"tax_rate_fallback"`
	Error           string               `json:"error,omitempty"`
	ResumeURL       string               `json:"resume_url,omitempty"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"payment_status"`
}

// --- Handlers ---

// Quote handles POST /venues/{vid}/orders/quote. Nothing is persisted.
func (h *OrderHandler) Quote(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	priced, fallback, err := h.svc.Quote(r.Context(), venueID, req.lineItems(), req.discount())
	if err != nil {
		if service.IsValidation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: quote order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines := make([]quoteLineResponse, len(priced.LineItems))
	for i, li := range priced.LineItems {
		lines[i] = quoteLineResponse{
			ItemID:         li.ItemID,
			DiscountAmount: priced.LineDiscounts[i].StringFixed(2),
			Subtotal:       priced.LineSubtotals[i].StringFixed(2),
		}
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Rounded:         priced.Rounded(),
		Lines:           lines,
		TaxRateFallback: fallback,
	})
}

// Place handles POST /venues/{vid}/orders.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	placement, err := h.svc.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		VenueID:       venueID,
		CreatedBy:     claims.UserID,
		OrderType:     req.OrderType,
		TableNumber:   req.TableNumber,
		CustomerName:  req.CustomerName,
		PaymentStatus: req.PaymentStatus,
		Discount:      req.discount(),
		Items:         req.lineItems(),
	})
	h.respondPlacement(w, venueID, placement, err)
}

// Resume handles POST /venues/{vid}/orders/{id}/resume.
func (h *OrderHandler) Resume(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	placement, err := h.svc.ResumeOrder(r.Context(), venueID, orderID)
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	case errors.Is(err, service.ErrOrderCancelled):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is cancelled"})
		return
	}
	h.respondPlacement(w, venueID, placement, err)
}

// respondPlacement maps a placement result onto the response. A failed
// header means nothing was written; a failed later step still returns the
// order so the caller can resume it.
func (h *OrderHandler) respondPlacement(w http.ResponseWriter, venueID uuid.UUID, p *service.OrderPlacement, err error) {
	if err != nil && service.IsValidation(err) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var perr *service.PersistenceError
	if err != nil && (!errors.As(err, &perr) || perr.Outcome() == service.OutcomeFailed || p == nil) {
		log.Printf("ERROR: place order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "order placement failed",
			"state": service.OutcomeFailed,
		})
		return
	}

	resp := orderPlacementResponse{
		State:           service.OutcomeSuccess,
		Order:           dbOrderToResponse(p.Order),
		TaxRateFallback: p.TaxRateFallback,
	}
	resp.Order.Items = make([]orderItemResponse, len(p.Items))
	for i, item := range p.Items {
		resp.Order.Items[i] = dbOrderItemToResponse(item)
	}
	if p.Ledger != nil {
		entry := dbTransactionToResponse(*p.Ledger)
		resp.Ledger = &entry
	}

	status := http.StatusCreated
	event := ws.EventOrderPlaced
	if perr != nil {
		log.Printf("WARN: order %s placed partially: %v", p.Order.ID, err)
		resp.State = service.OutcomePartial
		resp.Error = perr.Step + " step failed"
		resp.ResumeURL = fmt.Sprintf("/venues/%s/orders/%s/resume", venueID, p.Order.ID)
		event = ws.EventOrderPartial
		if perr.Step == service.StepItems {
			status = http.StatusAccepted
		}
	}

	h.publish(venueID, event, resp.Order)
	writeJSON(w, status, resp)
}

// List handles GET /venues/{vid}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	limit, offset := parsePagination(r)
	params := database.ListOrdersParams{
		VenueID: venueID,
		Limit:   int32(limit),
		Offset:  int32(offset),
	}
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := q.Get("payment_status"); s != "" {
		params.PaymentStatus = pgtype.Text{String: s, Valid: true}
	}
	if s := q.Get("placement_state"); s != "" {
		params.PlacementState = pgtype.Text{String: s, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /venues/{vid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, VenueID: venueID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(order)
	resp.Items = make([]orderItemResponse, len(items))
	for i, item := range items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /venues/{vid}/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !isValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	current, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, VenueID: venueID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := validateTransition(orderTransitions, current.Status, req.Status); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		Status:   req.Status,
		ID:       orderID,
		VenueID:  venueID,
		Status_2: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(updated)
	h.publish(venueID, ws.EventOrderUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// UpdatePayment handles PATCH /venues/{vid}/orders/{id}/payment.
// Cancelled orders cannot be paid.
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	venueID, err := uuid.Parse(chi.URLParam(r, "vid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.PaymentStatus != enum.PaymentStatusPending && req.PaymentStatus != enum.PaymentStatusPaid {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_status"})
		return
	}

	current, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, VenueID: venueID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for payment update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if current.Status == enum.OrderStatusCancelled {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is cancelled"})
		return
	}
	if err := validateTransition(paymentTransitions, current.PaymentStatus, req.PaymentStatus); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.store.UpdateOrderPaymentStatus(r.Context(), database.UpdateOrderPaymentStatusParams{
		PaymentStatus:   req.PaymentStatus,
		ID:              orderID,
		VenueID:         venueID,
		PaymentStatus_2: current.PaymentStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order changed, please retry"})
			return
		}
		log.Printf("ERROR: update order payment status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(updated)
	h.publish(venueID, ws.EventOrderUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) publish(venueID uuid.UUID, eventType string, payload any) {
	if h.events != nil {
		h.events.Publish(venueID, eventType, payload)
	}
}

// --- Helpers ---

func (c cartRequest) lineItems() []pricing.LineItem {
	items := make([]pricing.LineItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = pricing.LineItem{
			ItemID:              it.ItemID,
			UnitPrice:           it.UnitPrice,
			Quantity:            it.Quantity,
			ItemDiscountPercent: it.ItemDiscountPercent,
		}
	}
	return items
}

func (c cartRequest) discount() pricing.Discount {
	return pricing.Discount{Kind: c.DiscountType, Value: c.DiscountValue}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid || n.Int == nil {
		return "0.00"
	}
	return decimal.NewFromBigInt(n.Int, n.Exp).StringFixed(2)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func dbOrderToResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		VenueID:        o.VenueID,
		OrderNumber:    o.OrderNumber,
		OrderType:      o.OrderType,
		TableNumber:    textPtr(o.TableNumber),
		CustomerName:   textPtr(o.CustomerName),
		Subtotal:       numericToString(o.Subtotal),
		DiscountType:   o.DiscountType,
		DiscountValue:  numericToString(o.DiscountValue),
		DiscountAmount: numericToString(o.DiscountAmount),
		TaxRate:        numericToString(o.TaxRate),
		TaxAmount:      numericToString(o.TaxAmount),
		TotalAmount:    numericToString(o.TotalAmount),
		PaymentStatus:  o.PaymentStatus,
		Status:         o.Status,
		PlacementState: o.PlacementState,
		CreatedBy:      o.CreatedBy,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func dbOrderItemToResponse(item database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:                  item.ID,
		LineNo:              item.LineNo,
		ItemID:              item.ItemID,
		UnitPrice:           numericToString(item.UnitPrice),
		Quantity:            item.Quantity,
		ItemDiscountPercent: numericToString(item.ItemDiscountPercent),
		DiscountAmount:      numericToString(item.DiscountAmount),
		Subtotal:            numericToString(item.Subtotal),
	}
}

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusProcessing, enum.OrderStatusCompleted, enum.OrderStatusCancelled:
		return true
	}
	return false
}

// orderTransitions: key is the current status, value the statuses it may move to.
var orderTransitions = map[string][]string{
	enum.OrderStatusProcessing: {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
}

var paymentTransitions = map[string][]string{
	enum.PaymentStatusPending: {enum.PaymentStatusPaid},
}

func validateTransition(allowedTransitions map[string][]string, current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("cannot transition from %s", current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("cannot transition from %s to %s", current, next)
}
