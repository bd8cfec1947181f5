package mapper

import (
	"time"

	storetypes "github.com/Apurer/retail-ops/internal/domains/stores/application/types"
	"github.com/Apurer/retail-ops/internal/domains/stores/domain"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Store never exposes the password hash.
type Store struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	AddressLine1 string    `json:"addressLine1"`
	AddressLine2 string    `json:"addressLine2,omitempty"`
	Location     *Location `json:"location,omitempty"`
	Category     string    `json:"category"`
	StoreNumber  string    `json:"storeNumber,omitempty"`
	ContactEmail string    `json:"contactEmail"`
	LoginEmail   string    `json:"loginEmail"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ProvisionResponse struct {
	Store    Store    `json:"store"`
	Warnings []string `json:"warnings,omitempty"`
}

type CreateStoreRequest struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	Category     string `json:"category"`
	StoreNumber  string `json:"storeNumber"`
	ContactEmail string `json:"contactEmail"`
}

type UpdateStoreRequest struct {
	Name         *string `json:"name"`
	AddressLine1 *string `json:"addressLine1"`
	AddressLine2 *string `json:"addressLine2"`
	Category     *string `json:"category"`
	StoreNumber  *string `json:"storeNumber"`
	ContactEmail *string `json:"contactEmail"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ReverseGeocode struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

func ToCreateInput(req CreateStoreRequest, idempotencyKey string) storetypes.CreateStoreInput {
	return storetypes.CreateStoreInput{
		Name:           req.Name,
		AddressLine1:   req.AddressLine1,
		AddressLine2:   req.AddressLine2,
		Category:       req.Category,
		StoreNumber:    req.StoreNumber,
		ContactEmail:   req.ContactEmail,
		IdempotencyKey: idempotencyKey,
	}
}

func ToUpdateInput(storeID string, req UpdateStoreRequest) storetypes.UpdateStoreInput {
	return storetypes.UpdateStoreInput{
		StoreID:      storeID,
		Name:         req.Name,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		Category:     req.Category,
		StoreNumber:  req.StoreNumber,
		ContactEmail: req.ContactEmail,
	}
}

func FromStore(s *domain.Store) Store {
	out := Store{
		ID:           s.ID,
		Name:         s.Name,
		AddressLine1: s.AddressLine1,
		AddressLine2: s.AddressLine2,
		Category:     s.Category,
		StoreNumber:  s.StoreNumber,
		ContactEmail: s.ContactEmail,
		LoginEmail:   s.LoginEmail,
		Status:       string(s.Status),
		CreatedAt:    s.CreatedAt,
	}
	if s.Location != nil {
		out.Location = &Location{Lat: s.Location.Lat, Lng: s.Location.Lng}
	}
	return out
}

func FromStores(stores []*domain.Store) []Store {
	out := make([]Store, 0, len(stores))
	for _, s := range stores {
		out = append(out, FromStore(s))
	}
	return out
}

func FromProvision(result *storetypes.ProvisionResult) ProvisionResponse {
	return ProvisionResponse{Store: FromStore(result.Store), Warnings: result.Warnings}
}
