package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusProcessing = "PROCESSING"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCanceled  = "CANCELED"
)

// Placement progress of an order or booking. Writes are not atomic, so the
// header row records how far its placement got.
const (
	PlacementHeaderCreated  = "HEADER_CREATED"
	PlacementItemsCreated   = "ITEMS_CREATED"
	PlacementLedgerRecorded = "LEDGER_RECORDED"
	PlacementDone           = "DONE"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	StaffRoleOwner   = "OWNER"
	StaffRoleManager = "MANAGER"
	StaffRoleCashier = "CASHIER"
)

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
)

const (
	LedgerKindIncome  = "INCOME"
	LedgerKindExpense = "EXPENSE"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	DiscountTypeNone       = "NONE"
	DiscountTypePercentage = "PERCENTAGE"
	DiscountTypeFixed      = "FIXED_AMOUNT"
)

const (
	LedgerCategoryOrderSales  = "Order Sales"
	LedgerCategoryHallBooking = "Hall Booking"
)

const (
	LedgerSourceOrder   = "order"
	LedgerSourceBooking = "booking"
)

// Walk-in is shown when an order has no customer name.
const WalkInCustomer = "walk-in"
