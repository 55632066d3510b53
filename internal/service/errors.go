package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kiwari-pos/venue-api/internal/booking"
	"github.com/kiwari-pos/venue-api/internal/pricing"
)

// Placement steps, in the order they run.
const (
	StepHeader = "header"
	StepItems  = "items"
	StepLedger = "ledger"
)

// Placement outcomes reported to callers.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

var (
	ErrSlotConflict = errors.New("slot is no longer available")

	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidOrderType     = errors.New("invalid order_type")
	ErrTableRequired        = errors.New("table_number is required for DINE_IN orders")
	ErrTableNotAllowed      = errors.New("table_number is only allowed for DINE_IN orders")
	ErrTableNotFound        = errors.New("table not found in venue")
	ErrInvalidPaymentStatus = errors.New("invalid payment_status")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderCancelled       = errors.New("order is cancelled")

	ErrHallNotFound     = errors.New("hall not found in venue")
	ErrServiceNotFound  = errors.New("additional service not found in venue")
	ErrCustomerRequired = errors.New("customer_name is required")
	ErrInvalidAttendees = errors.New("attendees must be >= 1")
	ErrOverCapacity     = errors.New("attendees exceed hall capacity")
	ErrNegativeTotal    = errors.New("total_amount must be >= 0")
	ErrDateRequired     = errors.New("date is required")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingCanceled  = errors.New("booking is canceled")
)

// ValidationError is an input rejected before any write.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a validation failure from this package
// or from the pricing and booking rules it applies.
func IsValidation(err error) bool {
	var ve *ValidationError
	var pe *pricing.ValidationError
	var be *booking.ValidationError
	return errors.As(err, &ve) || errors.As(err, &pe) || errors.As(err, &be)
}

// SlotConflictError carries the bookings that already hold the slot. It
// matches ErrSlotConflict with errors.Is.
type SlotConflictError struct {
	Conflicts []booking.Booking
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("%v: overlaps %d booking(s)", ErrSlotConflict, len(e.Conflicts))
}

func (e *SlotConflictError) Is(target error) bool { return target == ErrSlotConflict }

// PersistenceError reports which write of a placement failed. RecordID is the
// order or booking id when the header was already created, uuid.Nil otherwise.
type PersistenceError struct {
	Step     string
	RecordID uuid.UUID
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.RecordID == uuid.Nil {
		return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s step failed for %s: %v", e.Step, e.RecordID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Outcome maps a failed step to what the caller should report: nothing was
// created, or the record exists with work left to resume.
func (e *PersistenceError) Outcome() string {
	if e.Step == StepHeader {
		return OutcomeFailed
	}
	return OutcomePartial
}
