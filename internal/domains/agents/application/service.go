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

	agenttypes "github.com/Apurer/retail-ops/internal/domains/agents/application/types"
	"github.com/Apurer/retail-ops/internal/domains/agents/domain"
	"github.com/Apurer/retail-ops/internal/domains/agents/ports"
	"github.com/Apurer/retail-ops/internal/platform/changefeed"
	"github.com/Apurer/retail-ops/internal/platform/credentials"
	"github.com/Apurer/retail-ops/internal/platform/idempotency"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

// WarningEmailNotSent is reported when the agent exists but the credential e-mail failed.
const WarningEmailNotSent = "credential e-mail could not be delivered"

// Service orchestrates agent provisioning and availability.
type Service struct {
	repo        ports.Repository
	notifier    credentials.Notifier
	generator   *credentials.Generator
	idempotency idempotency.Store
	publisher   changefeed.Publisher
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

type Option func(*Service)

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
	Name      string `json:"name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	Available bool   `json:"available"`
}

func (s *Service) CreateAgent(ctx context.Context, input agenttypes.CreateAgentInput) (*agenttypes.ProvisionResult, error) {
	now := s.now().UTC()
	agent := &domain.Agent{
		ID:        s.newID(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Mobile:    strings.TrimSpace(input.Mobile),
		Available: input.Available,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := agent.Validate(); err != nil {
		return nil, mapError(err)
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	hash, err := idempotency.Fingerprint(createFingerprint{Name: agent.Name, Email: agent.Email, Mobile: agent.Mobile, Available: agent.Available})
	if err != nil {
		return nil, err
	}
	existingID, err := idempotency.Lookup(ctx, s.idempotency, idempotency.ScopeAgents, key, hash)
	if err != nil {
		return nil, mapError(err)
	}
	if existingID != "" {
		existing, err := s.repo.Get(ctx, existingID)
		if err != nil {
			return nil, mapError(err)
		}
		return &agenttypes.ProvisionResult{Agent: existing, Replayed: true}, nil
	}

	if agent.LoginEmail, err = s.generator.UniqueLoginEmail(ctx, s.repo.LoginEmailTaken, agent.Name); err != nil {
		return nil, mapError(err)
	}
	password, err := s.generator.Password()
	if err != nil {
		return nil, err
	}
	if agent.PasswordHash, err = credentials.Hash(password); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, agent); err != nil {
		return nil, mapError(err)
	}
	if err := idempotency.Remember(ctx, s.idempotency, idempotency.ScopeAgents, key, hash, agent.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to record idempotency key", slog.String("agent.id", agent.ID), slog.String("error", err.Error()))
	}
	s.publish(ctx, agent, changefeed.KindCreated)

	result := &agenttypes.ProvisionResult{Agent: agent}
	if err := s.deliver(ctx, agent, password); err != nil {
		s.logger.WarnContext(ctx, "credential e-mail not delivered", slog.String("agent.id", agent.ID), slog.String("error", err.Error()))
		result.Warnings = append(result.Warnings, WarningEmailNotSent)
	}
	return result, nil
}

func (s *Service) deliver(ctx context.Context, agent *domain.Agent, password string) error {
	if s.notifier == nil {
		return errors.New("no credential notifier configured")
	}
	email, err := credentials.Render(agent.Email, agent.Name, "delivery agent", agent.LoginEmail, password)
	if err != nil {
		return err
	}
	return s.notifier.Deliver(ctx, email)
}

func (s *Service) UpdateAgent(ctx context.Context, input agenttypes.UpdateAgentInput) (*domain.Agent, error) {
	agent, err := s.repo.Get(ctx, input.AgentID)
	if err != nil {
		return nil, mapError(err)
	}
	if input.Name != nil {
		agent.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		agent.Email = strings.TrimSpace(*input.Email)
	}
	if input.Mobile != nil {
		agent.Mobile = strings.TrimSpace(*input.Mobile)
	}
	if err := agent.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.save(ctx, agent)
}

func (s *Service) SetAvailability(ctx context.Context, agentID string, available bool) (*domain.Agent, error) {
	agent, err := s.repo.Get(ctx, agentID)
	if err != nil {
		return nil, mapError(err)
	}
	if agent.Available == available {
		return agent, nil
	}
	agent.Available = available
	return s.save(ctx, agent)
}

func (s *Service) save(ctx context.Context, agent *domain.Agent) (*domain.Agent, error) {
	agent.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, agent); err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, agent, changefeed.KindUpdated)
	return agent, nil
}

func (s *Service) GetAgent(ctx context.Context, agentID string) (*domain.Agent, error) {
	agent, err := s.repo.Get(ctx, agentID)
	if err != nil {
		return nil, mapError(err)
	}
	return agent, nil
}

func (s *Service) ListAgents(ctx context.Context, filter ports.Filter) ([]*domain.Agent, error) {
	agents, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return agents, nil
}

// DeleteAgent removes the agent. Orders already bound keep the denormalized name.
func (s *Service) DeleteAgent(ctx context.Context, agentID string) error {
	if err := s.repo.Delete(ctx, agentID); err != nil {
		return mapError(err)
	}
	s.publish(ctx, &domain.Agent{ID: agentID}, changefeed.KindDeleted)
	return nil
}

func (s *Service) publish(ctx context.Context, agent *domain.Agent, kind changefeed.Kind) {
	change := changefeed.Change{
		Collection: changefeed.CollectionAgents,
		DocumentID: agent.ID,
		Kind:       kind,
		At:         s.now().UTC(),
	}
	if kind != changefeed.KindDeleted {
		change.Fields = map[string]any{"name": agent.Name, "available": agent.Available}
	}
	if err := s.publisher.Publish(ctx, change); err != nil {
		s.logger.WarnContext(ctx, "failed to publish agent change", slog.String("agent.id", agent.ID), slog.String("error", err.Error()))
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if failure.Kind(err) != nil {
		return err
	}
	if errors.Is(err, domain.ErrEmptyName) || errors.Is(err, domain.ErrEmptyEmail) || errors.Is(err, domain.ErrEmptyMobile) {
		return failure.Validation(err)
	}
	return fmt.Errorf("agents: %w", err)
}

var _ ports.Service = (*Service)(nil)
