// Package failure defines the error kinds shared by every bounded context.
//
// Contexts wrap their own sentinel errors with one of these kinds so transports
// can classify a failure without knowing which context produced it.
package failure

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a referenced document (order, agent, product, store) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a concurrent or stale write lost a compare-and-swap.
	ErrConflict = errors.New("conflict")
	// ErrValidation signals the request violated a domain invariant or missed required fields.
	ErrValidation = errors.New("validation failed")
	// ErrExternalService signals persistence, e-mail or geocoding calls failed or timed out.
	ErrExternalService = errors.New("external service failure")
)

// Kind returns the failure kind wrapped by err, or nil when err is unclassified.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrValidation, ErrExternalService} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// NotFound wraps err as ErrNotFound.
func NotFound(err error) error { return wrap(ErrNotFound, err) }

// Conflict wraps err as ErrConflict.
func Conflict(err error) error { return wrap(ErrConflict, err) }

// Validation wraps err as ErrValidation.
func Validation(err error) error { return wrap(ErrValidation, err) }

// External wraps err as ErrExternalService. Deadline expiry is kept in the chain so
// callers can tell timeouts apart.
func External(service string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrExternalService) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrExternalService, service, err)
}

// Retryable reports whether the caller may safely retry the request.
func Retryable(err error) bool {
	return errors.Is(err, ErrExternalService) || errors.Is(err, context.DeadlineExceeded)
}

func wrap(kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
