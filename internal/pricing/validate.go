package pricing

import (
	"errors"
	"fmt"

	"github.com/kiwari-pos/venue-api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by Validate. They are always wrapped in a *ValidationError.
var (
	ErrNegativePrice       = errors.New("unit_price must be >= 0")
	ErrInvalidQuantity     = errors.New("quantity must be >= 1")
	ErrItemDiscountRange   = errors.New("item_discount_percent must be between 0 and 100")
	ErrInvalidDiscountKind = errors.New("invalid discount kind")
	ErrPercentageRange     = errors.New("percentage discount must be between 0 and 100")
	ErrNegativeDiscount    = errors.New("discount value must be >= 0")
	ErrNegativeTaxRate     = errors.New("tax rate must be >= 0")
)

// ValidationError reports which input field was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks a cart and order discount without pricing them.
// An empty cart is valid here; refusing to place it is the order writer's job.
func Validate(lines []LineItem, orderDiscount Discount, taxRatePercent decimal.Decimal) error {
	for i, li := range lines {
		field := fmt.Sprintf("items[%d]", i)
		if li.UnitPrice.IsNegative() {
			return &ValidationError{Field: field + ".unit_price", Err: ErrNegativePrice}
		}
		if li.Quantity < 1 {
			return &ValidationError{Field: field + ".quantity", Err: ErrInvalidQuantity}
		}
		if !inPercentRange(li.ItemDiscountPercent) {
			return &ValidationError{Field: field + ".item_discount_percent", Err: ErrItemDiscountRange}
		}
	}

	switch normalizeKind(orderDiscount.Kind) {
	case enum.DiscountTypeNone:
	case enum.DiscountTypePercentage:
		if !inPercentRange(orderDiscount.Value) {
			return &ValidationError{Field: "discount_value", Err: ErrPercentageRange}
		}
	case enum.DiscountTypeFixed:
		if orderDiscount.Value.IsNegative() {
			return &ValidationError{Field: "discount_value", Err: ErrNegativeDiscount}
		}
	default:
		return &ValidationError{Field: "discount_type", Err: ErrInvalidDiscountKind}
	}

	if taxRatePercent.IsNegative() {
		return &ValidationError{Field: "tax_rate", Err: ErrNegativeTaxRate}
	}
	return nil
}

func inPercentRange(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

