package application

import (
	"errors"

	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

// ErrAgentUnavailable signals the agent exists but is not taking deliveries.
var ErrAgentUnavailable = errors.New("delivery agent is not available")

var conflictErrors = []error{
	domain.ErrInvalidTransition,
	domain.ErrUndecidedItems,
	domain.ErrNothingAccepted,
	domain.ErrAcceptedItems,
	domain.ErrAlreadyAssigned,
	domain.ErrNotReady,
	ErrAgentUnavailable,
}

var validationErrors = []error{
	domain.ErrInvalidStatus,
	domain.ErrEmptyUserID,
	domain.ErrNoStoreOrders,
	domain.ErrDuplicateStore,
	domain.ErrInvalidLocation,
	domain.ErrEmptyStoreID,
	domain.ErrEmptyItems,
	domain.ErrEmptyProductID,
	domain.ErrInvalidQuantity,
	domain.ErrNegativePrice,
	domain.ErrDuplicateLineItem,
	domain.ErrEmptyAgentID,
	domain.ErrInvalidQRPayload,
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if failure.Kind(err) != nil {
		return err
	}
	if errors.Is(err, domain.ErrItemNotFound) || errors.Is(err, domain.ErrUnknownStore) {
		return failure.NotFound(err)
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return failure.Conflict(err)
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return failure.Validation(err)
		}
	}
	return err
}
