package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the administrative state of a store.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

var (
	ErrEmptyName         = errors.New("store name is required")
	ErrEmptyAddress      = errors.New("address line 1 is required")
	ErrEmptyCategory     = errors.New("store category is required")
	ErrEmptyContactEmail = errors.New("contact e-mail is required")
	ErrInvalidStatus     = errors.New("invalid store status")
	ErrInvalidLocation   = errors.New("location is out of range")
)

// ParseStatus accepts any casing of active, inactive or suspended.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusActive, StatusInactive, StatusSuspended:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// Location is the geocoded position of the store.
type Location struct {
	Lat float64
	Lng float64
}

func (l Location) Validate() error {
	if l.Lat < -90 || l.Lat > 90 || l.Lng < -180 || l.Lng > 180 {
		return ErrInvalidLocation
	}
	return nil
}

// Store is a participating retailer. Location is nil until the address resolves.
type Store struct {
	ID           string
	Name         string
	AddressLine1 string
	AddressLine2 string
	Location     *Location
	Category     string
	StoreNumber  string
	ContactEmail string
	LoginEmail   string
	PasswordHash string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the fields an administrator must supply.
func (s *Store) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(s.AddressLine1) == "" {
		return ErrEmptyAddress
	}
	if strings.TrimSpace(s.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(s.ContactEmail) == "" {
		return ErrEmptyContactEmail
	}
	if _, err := ParseStatus(string(s.Status)); err != nil {
		return err
	}
	if s.Location != nil {
		return s.Location.Validate()
	}
	return nil
}

// Address joins the non-empty address lines for geocoding.
func (s *Store) Address() string {
	return JoinAddress(s.AddressLine1, s.AddressLine2)
}

// JoinAddress renders "line1, line2" skipping blank lines.
func JoinAddress(lines ...string) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, ", ")
}
