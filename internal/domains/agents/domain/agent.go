package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyName   = errors.New("agent name is required")
	ErrEmptyEmail  = errors.New("agent contact e-mail is required")
	ErrEmptyMobile = errors.New("agent mobile number is required")
)

// Agent is a courier that can be bound to ready orders while Available.
type Agent struct {
	ID           string
	Name         string
	Email        string
	Mobile       string
	Available    bool
	LoginEmail   string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *Agent) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(a.Email) == "" {
		return ErrEmptyEmail
	}
	if strings.TrimSpace(a.Mobile) == "" {
		return ErrEmptyMobile
	}
	return nil
}
