package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	storetypes "github.com/Apurer/retail-ops/internal/domains/stores/application/types"
	"github.com/Apurer/retail-ops/internal/domains/stores/domain"
	"github.com/Apurer/retail-ops/internal/domains/stores/ports"
	"github.com/Apurer/retail-ops/internal/platform/changefeed"
	"github.com/Apurer/retail-ops/internal/platform/credentials"
	"github.com/Apurer/retail-ops/internal/platform/idempotency"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

const (
	WarningEmailNotSent = "credential e-mail could not be delivered"
	WarningNotGeocoded  = "address could not be geocoded"
	credentialRole      = "store"
)

// Service orchestrates store provisioning.
type Service struct {
	repo        ports.Repository
	geocoder    ports.Geocoder
	notifier    credentials.Notifier
	generator   *credentials.Generator
	idempotency idempotency.Store
	publisher   changefeed.Publisher
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

type Option func(*Service)

func WithGeocoder(g ports.Geocoder) Option {
	return func(s *Service) { s.geocoder = g }
}

func WithNotifier(n credentials.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithCredentialGenerator(g *credentials.Generator) Option {
	return func(s *Service) { s.generator = g }
}

func WithIdempotencyStore(store idempotency.Store) Option {
	return func(s *Service) { s.idempotency = store }
}

func WithPublisher(p changefeed.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the stores service with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		generator: credentials.NewGenerator(""),
		publisher: changefeed.Discard,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.publisher == nil {
		s.publisher = changefeed.Discard
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

type createFingerprint struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	Category     string `json:"category"`
	StoreNumber  string `json:"storeNumber"`
	ContactEmail string `json:"contactEmail"`
}

// CreateStore provisions a store with generated credentials. The store is kept when
// the credential e-mail fails; the failure is reported as a warning.
func (s *Service) CreateStore(ctx context.Context, input storetypes.CreateStoreInput) (*storetypes.ProvisionResult, error) {
	now := s.now().UTC()
	store := &domain.Store{
		ID:           s.newID(),
		Name:         strings.TrimSpace(input.Name),
		AddressLine1: strings.TrimSpace(input.AddressLine1),
		AddressLine2: strings.TrimSpace(input.AddressLine2),
		Category:     strings.TrimSpace(input.Category),
		StoreNumber:  strings.TrimSpace(input.StoreNumber),
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Validate(); err != nil {
		return nil, mapError(err)
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	hash, err := idempotency.Fingerprint(createFingerprint{
		Name: store.Name, AddressLine1: store.AddressLine1, AddressLine2: store.AddressLine2,
		Category: store.Category, StoreNumber: store.StoreNumber, ContactEmail: store.ContactEmail,
	})
	if err != nil {
		return nil, err
	}
	existingID, err := idempotency.Lookup(ctx, s.idempotency, idempotency.ScopeStores, key, hash)
	if err != nil {
		return nil, mapError(err)
	}
	if existingID != "" {
		existing, err := s.repo.Get(ctx, existingID)
		if err != nil {
			return nil, mapError(err)
		}
		return &storetypes.ProvisionResult{Store: existing, Replayed: true}, nil
	}

	result := &storetypes.ProvisionResult{Store: store}
	located, err := s.locate(ctx, store)
	if err != nil {
		return nil, err
	}
	if !located {
		result.Warnings = append(result.Warnings, WarningNotGeocoded)
	}

	loginEmail, err := s.generator.UniqueLoginEmail(ctx, s.repo.LoginEmailTaken, store.Name, store.Category)
	if err != nil {
		return nil, mapError(err)
	}
	password, err := s.generator.Password()
	if err != nil {
		return nil, err
	}
	if store.PasswordHash, err = credentials.Hash(password); err != nil {
		return nil, err
	}
	store.LoginEmail = loginEmail

	if err := s.repo.Create(ctx, store); err != nil {
		return nil, mapError(err)
	}
	if err := idempotency.Remember(ctx, s.idempotency, idempotency.ScopeStores, key, hash, store.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to record idempotency key",
			slog.String("store.id", store.ID), slog.String("error", err.Error()))
	}
	s.publish(ctx, store, changefeed.KindCreated)

	if warning := s.deliverCredentials(ctx, store, password); warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}
	return result, nil
}

func (s *Service) UpdateStore(ctx context.Context, input storetypes.UpdateStoreInput) (*storetypes.ProvisionResult, error) {
	store, err := s.repo.Get(ctx, input.StoreID)
	if err != nil {
		return nil, mapError(err)
	}
	previousAddress := store.Address()
	assign(&store.Name, input.Name)
	assign(&store.AddressLine1, input.AddressLine1)
	assign(&store.AddressLine2, input.AddressLine2)
	assign(&store.Category, input.Category)
	assign(&store.StoreNumber, input.StoreNumber)
	assign(&store.ContactEmail, input.ContactEmail)
	if err := store.Validate(); err != nil {
		return nil, mapError(err)
	}

	result := &storetypes.ProvisionResult{Store: store}
	if store.Address() != previousAddress {
		located, err := s.locate(ctx, store)
		if err != nil {
			return nil, err
		}
		if !located {
			result.Warnings = append(result.Warnings, WarningNotGeocoded)
		}
	}
	store.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, store); err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, store, changefeed.KindUpdated)
	return result, nil
}

func (s *Service) SetStoreStatus(ctx context.Context, storeID string, status domain.Status) (*domain.Store, error) {
	status, err := domain.ParseStatus(string(status))
	if err != nil {
		return nil, mapError(err)
	}
	store, err := s.repo.Get(ctx, storeID)
	if err != nil {
		return nil, mapError(err)
	}
	if store.Status == status {
		return store, nil
	}
	store.Status = status
	store.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, store); err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, store, changefeed.KindUpdated)
	return store, nil
}

func (s *Service) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	store, err := s.repo.Get(ctx, storeID)
	if err != nil {
		return nil, mapError(err)
	}
	return store, nil
}

func (s *Service) ListStores(ctx context.Context, filter ports.Filter) ([]*domain.Store, error) {
	stores, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return stores, nil
}

// ResolveAddress reverse-geocodes a point picked on the dashboard map.
func (s *Service) ResolveAddress(ctx context.Context, lat, lng float64) (string, error) {
	if err := (domain.Location{Lat: lat, Lng: lng}).Validate(); err != nil {
		return "", mapError(err)
	}
	if s.geocoder == nil {
		return "", failure.External("geocoder", errors.New("geocoder not configured"))
	}
	address, err := s.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		return "", failure.External("geocoder", err)
	}
	if address == "" {
		return "", failure.NotFound(fmt.Errorf("no address found at %.6f,%.6f", lat, lng))
	}
	return address, nil
}

// locate forward-geocodes the store address. It reports false when nothing matched;
// the store then keeps no location.
func (s *Service) locate(ctx context.Context, store *domain.Store) (bool, error) {
	if s.geocoder == nil {
		return false, nil
	}
	coords, err := s.geocoder.Forward(ctx, store.Address())
	if err != nil {
		return false, failure.External("geocoder", err)
	}
	if coords == nil {
		store.Location = nil
		return false, nil
	}
	store.Location = &domain.Location{Lat: coords.Lat, Lng: coords.Lng}
	return true, nil
}

func (s *Service) deliverCredentials(ctx context.Context, store *domain.Store, password string) string {
	if s.notifier == nil {
		return WarningEmailNotSent
	}
	email, err := credentials.Render(store.ContactEmail, store.Name, credentialRole, store.LoginEmail, password)
	if err == nil {
		err = s.notifier.Deliver(ctx, email)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "credential e-mail not delivered",
			slog.String("store.id", store.ID), slog.String("error", err.Error()))
		return WarningEmailNotSent
	}
	return ""
}

func (s *Service) publish(ctx context.Context, store *domain.Store, kind changefeed.Kind) {
	fields := map[string]any{
		"name":     store.Name,
		"category": store.Category,
		"status":   string(store.Status),
	}
	if store.Location != nil {
		fields["lat"] = store.Location.Lat
		fields["lng"] = store.Location.Lng
	}
	err := s.publisher.Publish(ctx, changefeed.Change{
		Collection: changefeed.CollectionStores,
		DocumentID: store.ID,
		Kind:       kind,
		Fields:     fields,
		At:         s.now().UTC(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish store change",
			slog.String("store.id", store.ID), slog.String("error", err.Error()))
	}
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if failure.Kind(err) != nil {
		return err
	}
	for _, target := range []error{
		domain.ErrEmptyName,
		domain.ErrEmptyAddress,
		domain.ErrEmptyCategory,
		domain.ErrEmptyContactEmail,
		domain.ErrInvalidStatus,
		domain.ErrInvalidLocation,
	} {
		if errors.Is(err, target) {
			return failure.Validation(err)
		}
	}
	return fmt.Errorf("stores: %w", err)
}

var _ ports.Service = (*Service)(nil)
