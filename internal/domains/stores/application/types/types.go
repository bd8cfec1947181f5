package types

import "github.com/Apurer/retail-ops/internal/domains/stores/domain"

// CreateStoreInput provisions a store. Credentials are sent to ContactEmail.
type CreateStoreInput struct {
	Name           string
	AddressLine1   string
	AddressLine2   string
	Category       string
	StoreNumber    string
	ContactEmail   string
	IdempotencyKey string
}

// UpdateStoreInput changes the provided fields only.
type UpdateStoreInput struct {
	StoreID      string
	Name         *string
	AddressLine1 *string
	AddressLine2 *string
	Category     *string
	StoreNumber  *string
	ContactEmail *string
}

// ProvisionResult is returned by create/update. Warnings report degraded side effects
// (credential e-mail not delivered, address not geocoded) on an otherwise successful call.
type ProvisionResult struct {
	Store    *domain.Store
	Warnings []string
	Replayed bool
}
