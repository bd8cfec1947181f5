package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	agentmemory "github.com/Apurer/retail-ops/internal/domains/agents/adapters/memory"
	agentobs "github.com/Apurer/retail-ops/internal/domains/agents/adapters/observability"
	agentpostgres "github.com/Apurer/retail-ops/internal/domains/agents/adapters/persistence/postgres"
	agentapp "github.com/Apurer/retail-ops/internal/domains/agents/application"
	agentports "github.com/Apurer/retail-ops/internal/domains/agents/ports"
	cataloguememory "github.com/Apurer/retail-ops/internal/domains/catalogue/adapters/memory"
	catalogueobs "github.com/Apurer/retail-ops/internal/domains/catalogue/adapters/observability"
	cataloguepostgres "github.com/Apurer/retail-ops/internal/domains/catalogue/adapters/persistence/postgres"
	catalogueapp "github.com/Apurer/retail-ops/internal/domains/catalogue/application"
	catalogueports "github.com/Apurer/retail-ops/internal/domains/catalogue/ports"
	orderagents "github.com/Apurer/retail-ops/internal/domains/orders/adapters/agents"
	ordermemory "github.com/Apurer/retail-ops/internal/domains/orders/adapters/memory"
	orderobs "github.com/Apurer/retail-ops/internal/domains/orders/adapters/observability"
	orderpostgres "github.com/Apurer/retail-ops/internal/domains/orders/adapters/persistence/postgres"
	orderapp "github.com/Apurer/retail-ops/internal/domains/orders/application"
	orderports "github.com/Apurer/retail-ops/internal/domains/orders/ports"
	storememory "github.com/Apurer/retail-ops/internal/domains/stores/adapters/memory"
	storeobs "github.com/Apurer/retail-ops/internal/domains/stores/adapters/observability"
	storepostgres "github.com/Apurer/retail-ops/internal/domains/stores/adapters/persistence/postgres"
	storeapp "github.com/Apurer/retail-ops/internal/domains/stores/application"
	storeports "github.com/Apurer/retail-ops/internal/domains/stores/ports"
	"github.com/Apurer/retail-ops/internal/platform/changefeed"
	feedkafka "github.com/Apurer/retail-ops/internal/platform/changefeed/kafka"
	feedmemory "github.com/Apurer/retail-ops/internal/platform/changefeed/memory"
	"github.com/Apurer/retail-ops/internal/platform/changefeed/pgnotify"
	"github.com/Apurer/retail-ops/internal/platform/credentials"
	"github.com/Apurer/retail-ops/internal/platform/geocode"
	"github.com/Apurer/retail-ops/internal/platform/idempotency"
	idemmemory "github.com/Apurer/retail-ops/internal/platform/idempotency/memory"
	idempostgres "github.com/Apurer/retail-ops/internal/platform/idempotency/postgres"
	"github.com/Apurer/retail-ops/internal/platform/mailer"
	"github.com/Apurer/retail-ops/internal/platform/migrations"
	platformobservability "github.com/Apurer/retail-ops/internal/platform/observability"
	platformpostgres "github.com/Apurer/retail-ops/internal/platform/postgres"
	"github.com/Apurer/retail-ops/internal/platform/temporal/codec"
	credentialworkflows "github.com/Apurer/retail-ops/internal/platform/temporal/workflows/credentials"
)

// Services is the fully wired application graph shared by the API and opsctl.
type Services struct {
	Orders    orderports.Service
	Catalogue catalogueports.Service
	Stores    storeports.Service
	Agents    agentports.Service
	Feed      changefeed.Feed
	DB        *gorm.DB

	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// BuildServices connects infrastructure and wires every bounded context. Postgres,
// Temporal and SMTP are optional: each falls back to an in-process replacement.
func BuildServices(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*Services, error) {
	logger := effectiveLogger(instruments)
	svc := &Services{}

	db, closeDB := platformpostgres.ConnectDSN(ctx, cfg.PostgresDSN, logger)
	svc.closers = append(svc.closers, closeDB)
	if db != nil {
		if err := migrations.Run(db); err != nil {
			svc.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		svc.DB = db
	}

	feed, err := openFeed(cfg, db, logger)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.Feed = feed
	svc.closers = append(svc.closers, func() { _ = feed.Close() })

	dispatcher, err := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		Timeout:  cfg.ExternalCallTimeout,
		Attempts: cfg.ExternalRetryAttempts,
	}, logger)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("configure mailer: %w", err)
	}
	var notifier credentials.Notifier = credentials.NewInline(dispatcher, cfg.ExternalCallTimeout)
	if temporalClient, err := DialTemporal(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, delivering credentials inline", slog.String("error", err.Error()))
	} else {
		svc.closers = append(svc.closers, temporalClient.Close)
		notifier = credentialworkflows.NewNotifier(temporalClient, cfg.CredentialWait)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	geocoder, err := geocode.New(geocode.Config{
		BaseURL:   cfg.GeocoderBaseURL,
		UserAgent: cfg.GeocoderUserAgent,
		Timeout:   cfg.ExternalCallTimeout,
		Attempts:  cfg.ExternalRetryAttempts,
	}, nil)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("configure geocoder: %w", err)
	}
	generator := credentials.NewGenerator(cfg.LoginEmailDomain)

	var (
		orderRepo     orderports.Repository     = ordermemory.NewRepository()
		catalogueRepo catalogueports.Repository = cataloguememory.NewRepository()
		storeRepo     storeports.Repository     = storememory.NewRepository()
		agentRepo     agentports.Repository     = agentmemory.NewRepository()
		idemStore     idempotency.Store         = idemmemory.NewStore()
	)
	if db != nil {
		timeout := cfg.ExternalCallTimeout
		orderRepo = orderpostgres.NewRepository(db, orderpostgres.WithQueryTimeout(timeout))
		catalogueRepo = cataloguepostgres.NewRepository(db, cataloguepostgres.WithQueryTimeout(timeout))
		storeRepo = storepostgres.NewRepository(db, storepostgres.WithQueryTimeout(timeout))
		agentRepo = agentpostgres.NewRepository(db, agentpostgres.WithQueryTimeout(timeout))
		idemStore = idempostgres.NewStore(db, idempostgres.WithQueryTimeout(timeout))
		logger.Info("repositories configured with postgres", slog.Duration("query_timeout", timeout))
	}

	svc.Catalogue = catalogueobs.New(
		catalogueapp.NewService(catalogueRepo,
			catalogueapp.WithPublisher(feed),
			catalogueapp.WithLogger(logger)),
		catalogueobs.WithLogger(logger),
		catalogueobs.WithTracer(instruments.Tracer("internal.catalogue.application")),
		catalogueobs.WithMeter(instruments.Meter("internal.catalogue.application")),
	)
	svc.Agents = agentobs.New(
		agentapp.NewService(agentRepo,
			agentapp.WithNotifier(notifier),
			agentapp.WithCredentialGenerator(generator),
			agentapp.WithIdempotencyStore(idemStore),
			agentapp.WithPublisher(feed),
			agentapp.WithLogger(logger)),
		agentobs.WithLogger(logger),
		agentobs.WithTracer(instruments.Tracer("internal.agents.application")),
		agentobs.WithMeter(instruments.Meter("internal.agents.application")),
	)
	svc.Stores = storeobs.New(
		storeapp.NewService(storeRepo,
			storeapp.WithGeocoder(geocoder),
			storeapp.WithNotifier(notifier),
			storeapp.WithCredentialGenerator(generator),
			storeapp.WithIdempotencyStore(idemStore),
			storeapp.WithPublisher(feed),
			storeapp.WithLogger(logger)),
		storeobs.WithLogger(logger),
		storeobs.WithTracer(instruments.Tracer("internal.stores.application")),
		storeobs.WithMeter(instruments.Meter("internal.stores.application")),
	)
	svc.Orders = orderobs.New(
		orderapp.NewService(orderRepo,
			orderapp.WithAgentDirectory(orderagents.NewDirectory(svc.Agents)),
			orderapp.WithInventory(svc.Catalogue),
			orderapp.WithPublisher(feed),
			orderapp.WithLogger(logger)),
		orderobs.WithLogger(logger),
		orderobs.WithTracer(instruments.Tracer("internal.orders.application")),
		orderobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	return svc, nil
}

func openFeed(cfg Config, db *gorm.DB, logger *slog.Logger) (changefeed.Feed, error) {
	switch cfg.ChangeFeedDriver {
	case FeedPostgres:
		if db == nil {
			logger.Warn("postgres change feed requested without a database, using in-memory broker")
			return feedmemory.NewBroker(), nil
		}
		feed, err := pgnotify.Open(db, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres change feed: %w", err)
		}
		logger.Info("change feed configured", slog.String("driver", FeedPostgres))
		return feed, nil
	case FeedKafka:
		feed, err := feedkafka.Open(feedkafka.ParseBrokers(cfg.KafkaBrokers), cfg.KafkaTopic, "retail-ops", logger)
		if err != nil {
			return nil, fmt.Errorf("open kafka change feed: %w", err)
		}
		logger.Info("change feed configured", slog.String("driver", FeedKafka), slog.String("topic", cfg.KafkaTopic))
		return feed, nil
	default:
		return feedmemory.NewBroker(), nil
	}
}

// DialTemporal connects a Temporal client with tracing and structured logging.
func DialTemporal(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	if strings.TrimSpace(cfg.TemporalPayloadKey) == "" {
		return nil, errors.New("TEMPORAL_PAYLOAD_KEY not set, credential payloads cannot be sealed")
	}
	key, err := codec.ParseKey(cfg.TemporalPayloadKey)
	if err != nil {
		return nil, err
	}
	payloadCodec, err := codec.New(cfg.TemporalPayloadKeyID, key)
	if err != nil {
		return nil, err
	}
	address := cfg.TemporalAddress
	if address == "" {
		address = client.DefaultHostPort
	}
	namespace := cfg.TemporalNamespace
	if namespace == "" {
		namespace = client.DefaultNamespace
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer("temporal-client"),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:      address,
		Namespace:     namespace,
		Logger:        workerlog.NewStructuredLogger(effectiveLogger(instruments)),
		DataConverter: codec.DataConverter(payloadCodec),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}
