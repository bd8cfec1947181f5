package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	agenttypes "github.com/Apurer/retail-ops/internal/domains/agents/application/types"
	"github.com/Apurer/retail-ops/internal/domains/agents/domain"
	"github.com/Apurer/retail-ops/internal/domains/agents/ports"
)

const tracerName = "github.com/Apurer/retail-ops/internal/domains/agents/adapters/observability/service"

// Service decorates the agents port with tracing, logging and an availability counter.
type Service struct {
	inner        ports.Service
	tracer       trace.Tracer
	logger       *slog.Logger
	provisioned  metric.Int64Counter
	availability metric.Int64Counter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		if m == nil {
			return
		}
		s.provisioned, _ = m.Int64Counter("agents.service.provisioned", metric.WithDescription("Agents created"))
		s.availability, _ = m.Int64Counter("agents.service.availability_changes", metric.WithDescription("Agent availability toggles"))
	}
}

func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Service) CreateAgent(ctx context.Context, input agenttypes.CreateAgentInput) (*agenttypes.ProvisionResult, error) {
	ctx, span := s.tracer.Start(ctx, "Agents.CreateAgent", trace.WithAttributes(
		attribute.Bool("idempotency.key_present", input.IdempotencyKey != ""),
	))
	defer span.End()

	result, err := s.inner.CreateAgent(ctx, input)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to create agent")
	}
	span.SetAttributes(attribute.String("agent.id", result.Agent.ID), attribute.Bool("idempotency.replayed", result.Replayed))
	if !result.Replayed && s.provisioned != nil {
		s.provisioned.Add(ctx, 1)
	}
	for _, warning := range result.Warnings {
		s.logger.WarnContext(ctx, "agent provisioned with warning", slog.String("agent.id", result.Agent.ID), slog.String("warning", warning))
	}
	s.logger.InfoContext(ctx, "agent provisioned", slog.String("agent.id", result.Agent.ID), slog.Bool("replayed", result.Replayed))
	return result, nil
}

func (s *Service) UpdateAgent(ctx context.Context, input agenttypes.UpdateAgentInput) (*domain.Agent, error) {
	ctx, span := s.tracer.Start(ctx, "Agents.UpdateAgent", trace.WithAttributes(attribute.String("agent.id", input.AgentID)))
	defer span.End()
	agent, err := s.inner.UpdateAgent(ctx, input)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to update agent", slog.String("agent.id", input.AgentID))
	}
	return agent, nil
}

func (s *Service) SetAvailability(ctx context.Context, agentID string, available bool) (*domain.Agent, error) {
	ctx, span := s.tracer.Start(ctx, "Agents.SetAvailability", trace.WithAttributes(
		attribute.String("agent.id", agentID), attribute.Bool("agent.available", available)))
	defer span.End()
	agent, err := s.inner.SetAvailability(ctx, agentID, available)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to set availability", slog.String("agent.id", agentID))
	}
	if s.availability != nil {
		s.availability.Add(ctx, 1, metric.WithAttributes(attribute.Bool("available", available)))
	}
	s.logger.InfoContext(ctx, "agent availability set", slog.String("agent.id", agentID), slog.Bool("available", available))
	return agent, nil
}

func (s *Service) GetAgent(ctx context.Context, agentID string) (*domain.Agent, error) {
	ctx, span := s.tracer.Start(ctx, "Agents.GetAgent", trace.WithAttributes(attribute.String("agent.id", agentID)))
	defer span.End()
	agent, err := s.inner.GetAgent(ctx, agentID)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to load agent", slog.String("agent.id", agentID))
	}
	return agent, nil
}

func (s *Service) ListAgents(ctx context.Context, filter ports.Filter) ([]*domain.Agent, error) {
	ctx, span := s.tracer.Start(ctx, "Agents.ListAgents", trace.WithAttributes(attribute.Bool("filter.available_only", filter.AvailableOnly)))
	defer span.End()
	agents, err := s.inner.ListAgents(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, span, err, "failed to list agents")
	}
	span.SetAttributes(attribute.Int("agent.result.count", len(agents)))
	return agents, nil
}

func (s *Service) DeleteAgent(ctx context.Context, agentID string) error {
	ctx, span := s.tracer.Start(ctx, "Agents.DeleteAgent", trace.WithAttributes(attribute.String("agent.id", agentID)))
	defer span.End()
	if err := s.inner.DeleteAgent(ctx, agentID); err != nil {
		return s.fail(ctx, span, err, "failed to delete agent", slog.String("agent.id", agentID))
	}
	s.logger.InfoContext(ctx, "agent deleted", slog.String("agent.id", agentID))
	return nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, err error, msg string, attrs ...any) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.ErrorContext(ctx, msg, append(attrs, slog.String("error", err.Error()))...)
	return err
}

var _ ports.Service = (*Service)(nil)
