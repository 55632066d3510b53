// Package booking decides whether a hall time slot is free.
//
// Bookings occupy half-open intervals [Start, End) on a calendar day. The
// checks here are pure functions over an already-fetched booking list; they are
// a best-effort pre-check and do not lock anything. The database enforces the
// same rule with an exclusion constraint.
package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/venue-api/internal/enum"
)

var (
	ErrSlotOutsideHours = errors.New("time is not a slot in the venue's operating hours")
	ErrEmptyInterval    = errors.New("end_time must be after start_time")
)

// ValidationError reports an interval that cannot be booked at all.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Booking is the part of a hall booking the conflict rules look at.
type Booking struct {
	ID     uuid.UUID
	HallID uuid.UUID
	Date   time.Time
	Start  Clock
	End    Clock
	Status string
}

// Blocks reports whether the booking still claims its slot.
func (b Booking) Blocks() bool {
	return b.Status != enum.BookingStatusCanceled
}

// Overlaps reports whether [s1,e1) and [s2,e2) intersect.
func Overlaps(s1, e1, s2, e2 Clock) bool {
	return s1 < e2 && s2 < e1
}

// SameDay compares calendar days, ignoring time of day and location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FindConflicts returns the non-canceled bookings for hallID on date whose
// interval overlaps [start,end). Back-to-back bookings do not conflict.
func FindConflicts(hallID uuid.UUID, date time.Time, start, end Clock, existing []Booking) []Booking {
	var conflicts []Booking
	for _, b := range existing {
		if b.HallID != hallID || !SameDay(b.Date, date) || !b.Blocks() {
			continue
		}
		if Overlaps(start, end, b.Start, b.End) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}

// Slot is a start time annotated with availability.
type Slot struct {
	Start     Clock `json:"start"`
	Available bool  `json:"available"`
}

// AvailableSlots marks each slot t free iff no blocking booking has
// Start <= t < End.
func AvailableSlots(slots SlotSet, hallID uuid.UUID, date time.Time, existing []Booking) []Slot {
	starts := slots.Slots()
	out := make([]Slot, len(starts))
	for i, t := range starts {
		out[i] = Slot{Start: t, Available: true}
		for _, b := range existing {
			if b.HallID != hallID || !SameDay(b.Date, date) || !b.Blocks() {
				continue
			}
			if b.Start <= t && t < b.End {
				out[i].Available = false
				break
			}
		}
	}
	return out
}

// FreeStarts returns only the available slot start times.
func FreeStarts(slots []Slot) []Clock {
	var out []Clock
	for _, s := range slots {
		if s.Available {
			out = append(out, s.Start)
		}
	}
	return out
}
