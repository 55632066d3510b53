package booking

import (
	"errors"
	"fmt"
	"time"
)

// Clock is a time of day in minutes after midnight.
type Clock int

// ParseClock parses "HH:MM" (24h). "24:00" is accepted as the end of day.
func ParseClock(s string) (Clock, error) {
	if s == "24:00" {
		return Clock(24 * 60), nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, use HH:MM", s)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// MustClock is ParseClock for constants; it panics on bad input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalText renders the clock as HH:MM in JSON.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses HH:MM.
func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// SlotSet is the venue-wide ordered set of bookable start times:
// Open, Open+Interval, ... strictly before Close.
type SlotSet struct {
	Open     Clock
	Close    Clock
	Interval time.Duration
}

// NewSlotSet builds a SlotSet and checks it describes at least one slot.
func NewSlotSet(open, closing Clock, interval time.Duration) (SlotSet, error) {
	if interval < time.Minute || interval%time.Minute != 0 {
		return SlotSet{}, errors.New("slot interval must be a whole number of minutes")
	}
	if open < 0 || closing > 24*60 || open >= closing {
		return SlotSet{}, fmt.Errorf("invalid operating hours %s-%s", open, closing)
	}
	return SlotSet{Open: open, Close: closing, Interval: interval}, nil
}

func (s SlotSet) step() Clock {
	return Clock(s.Interval / time.Minute)
}

// Slots returns the start times in ascending order.
func (s SlotSet) Slots() []Clock {
	step := s.step()
	if step <= 0 {
		return nil
	}
	var out []Clock
	for t := s.Open; t < s.Close; t += step {
		out = append(out, t)
	}
	return out
}

// Contains reports whether t is one of the slot start times.
func (s SlotSet) Contains(t Clock) bool {
	step := s.step()
	if step <= 0 || t < s.Open || t >= s.Close {
		return false
	}
	return (t-s.Open)%step == 0
}

// isBoundary reports whether t may end a booking: a slot start or the close.
func (s SlotSet) isBoundary(t Clock) bool {
	return t == s.Close || s.Contains(t)
}

// ValidateInterval checks that [start,end) is aligned to the slot set.
func (s SlotSet) ValidateInterval(start, end Clock) error {
	if !s.Contains(start) {
		return &ValidationError{Field: "start_time", Err: ErrSlotOutsideHours}
	}
	if !s.isBoundary(end) {
		return &ValidationError{Field: "end_time", Err: ErrSlotOutsideHours}
	}
	if end <= start {
		return &ValidationError{Field: "end_time", Err: ErrEmptyInterval}
	}
	return nil
}
