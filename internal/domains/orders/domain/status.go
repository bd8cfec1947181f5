package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is shared by orders, store orders and line items.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusPackaged  Status = "packaged"
	StatusOnway     Status = "onway"
	StatusDelivered Status = "delivered"
)

var (
	ErrInvalidStatus     = errors.New("status is invalid")
	ErrInvalidTransition = errors.New("status transition is not allowed")
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusPackaged},
	StatusPackaged: {StatusOnway},
	StatusOnway:    {StatusDelivered},
}

// ParseStatus validates a wire value.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusPackaged, StatusOnway, StatusDelivered:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition leaves the status.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusRejected
}

// Decided reports whether a store has made its accept/reject decision.
func (s Status) Decided() bool {
	return s.Valid() && s != StatusPending
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Timestamps records when each transition happened. Every field is written at most once.
type Timestamps struct {
	Accepted  *time.Time
	Rejected  *time.Time
	Packaged  *time.Time
	Onway     *time.Time
	Delivered *time.Time
}

// Stamp records the time the status was entered unless it was already recorded.
func (t *Timestamps) Stamp(status Status, at time.Time) {
	slot := t.slot(status)
	if slot == nil || *slot != nil {
		return
	}
	at = at.UTC()
	*slot = &at
}

// At returns the recorded time for the status, if any.
func (t Timestamps) At(status Status) *time.Time {
	slot := t.slot(status)
	if slot == nil || *slot == nil {
		return nil
	}
	at := **slot
	return &at
}

func (t *Timestamps) slot(status Status) **time.Time {
	switch status {
	case StatusAccepted:
		return &t.Accepted
	case StatusRejected:
		return &t.Rejected
	case StatusPackaged:
		return &t.Packaged
	case StatusOnway:
		return &t.Onway
	case StatusDelivered:
		return &t.Delivered
	default:
		return nil
	}
}

// Clone deep copies the timestamps.
func (t Timestamps) Clone() Timestamps {
	return Timestamps{
		Accepted:  t.At(StatusAccepted),
		Rejected:  t.At(StatusRejected),
		Packaged:  t.At(StatusPackaged),
		Onway:     t.At(StatusOnway),
		Delivered: t.At(StatusDelivered),
	}
}
