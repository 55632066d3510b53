package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Venue struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Staff struct {
	ID           uuid.UUID `json:"id"`
	VenueID      uuid.UUID `json:"venue_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type TaxSetting struct {
	VenueID        uuid.UUID      `json:"venue_id"`
	TaxRatePercent pgtype.Numeric `json:"tax_rate_percent"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type RestaurantTable struct {
	ID          uuid.UUID `json:"id"`
	VenueID     uuid.UUID `json:"venue_id"`
	TableNumber string    `json:"table_number"`
	Seats       int32     `json:"seats"`
	IsActive    bool      `json:"is_active"`
}

type Hall struct {
	ID       uuid.UUID `json:"id"`
	VenueID  uuid.UUID `json:"venue_id"`
	Name     string    `json:"name"`
	Capacity int32     `json:"capacity"`
	IsActive bool      `json:"is_active"`
}

type HallService struct {
	ID       uuid.UUID      `json:"id"`
	VenueID  uuid.UUID      `json:"venue_id"`
	Name     string         `json:"name"`
	Price    pgtype.Numeric `json:"price"`
	IsActive bool           `json:"is_active"`
}

type Order struct {
	ID             uuid.UUID      `json:"id"`
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
	Status         string         `json:"status"`
	PlacementState string         `json:"placement_state"`
	CartSnapshot   []byte         `json:"cart_snapshot"`
	CreatedBy      uuid.UUID      `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type OrderItem struct {
	ID                  uuid.UUID      `json:"id"`
	OrderID             uuid.UUID      `json:"order_id"`
	LineNo              int32          `json:"line_no"`
	ItemID              string         `json:"item_id"`
	UnitPrice           pgtype.Numeric `json:"unit_price"`
	Quantity            int32          `json:"quantity"`
	ItemDiscountPercent pgtype.Numeric `json:"item_discount_percent"`
	DiscountAmount      pgtype.Numeric `json:"discount_amount"`
	Subtotal            pgtype.Numeric `json:"subtotal"`
	CreatedAt           time.Time      `json:"created_at"`
}

type HallBooking struct {
	ID                 uuid.UUID      `json:"id"`
	VenueID            uuid.UUID      `json:"venue_id"`
	HallID             uuid.UUID      `json:"hall_id"`
	BookingDate        pgtype.Date    `json:"booking_date"`
	StartMin           int32          `json:"start_min"`
	EndMin             int32          `json:"end_min"`
	CustomerName       string         `json:"customer_name"`
	Attendees          int32          `json:"attendees"`
	AdditionalServices []uuid.UUID    `json:"additional_services"`
	Status             string         `json:"status"`
	TotalAmount        pgtype.Numeric `json:"total_amount"`
	PlacementState     string         `json:"placement_state"`
	CreatedBy          uuid.UUID      `json:"created_by"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

type Transaction struct {
	ID              uuid.UUID      `json:"id"`
	VenueID         uuid.UUID      `json:"venue_id"`
	TransactionCode string         `json:"transaction_code"`
	TransactionDate pgtype.Date    `json:"transaction_date"`
	Description     string         `json:"description"`
	Amount          pgtype.Numeric `json:"amount"`
	Kind            string         `json:"kind"`
	Category        string         `json:"category"`
	SourceType      string         `json:"source_type"`
	SourceRef       string         `json:"source_ref"`
	CreatedAt       time.Time      `json:"created_at"`
}
