package api

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Apurer/retail-ops/internal/platform/temporal/codec"
)

// Change feed drivers.
const (
	FeedMemory   = "memory"
	FeedPostgres = "postgres"
	FeedKafka    = "kafka"
)

// Config carries environment-driven settings shared by the API, worker and CLI.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	TemporalAddress   string `envconfig:"TEMPORAL_ADDRESS" default:"localhost:7233"`
	TemporalNamespace string `envconfig:"TEMPORAL_NAMESPACE" default:"default"`
	TemporalDisabled  bool   `envconfig:"TEMPORAL_DISABLED"`
	// TemporalPayloadKey is a base64 AES-256 key sealing workflow payloads.
	TemporalPayloadKey   string `envconfig:"TEMPORAL_PAYLOAD_KEY"`
	TemporalPayloadKeyID string `envconfig:"TEMPORAL_PAYLOAD_KEY_ID" default:"v1"`

	ChangeFeedDriver string `envconfig:"CHANGEFEED_DRIVER" default:"memory"`
	KafkaBrokers     string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic       string `envconfig:"KAFKA_TOPIC" default:"retail-ops.changes"`

	GeocoderBaseURL   string `envconfig:"GEOCODER_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	GeocoderUserAgent string `envconfig:"GEOCODER_USER_AGENT" default:"retail-ops/1.0"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"no-reply@retail-ops.local"`

	LoginEmailDomain string `envconfig:"LOGIN_EMAIL_DOMAIN" default:"retail-ops.local"`

	ExternalCallTimeout   time.Duration `envconfig:"EXTERNAL_CALL_TIMEOUT" default:"10s"`
	ExternalRetryAttempts int           `envconfig:"EXTERNAL_RETRY_ATTEMPTS" default:"3"`
	// CredentialWait bounds how long a request waits for the credential workflow.
	CredentialWait time.Duration `envconfig:"CREDENTIAL_WAIT" default:"15s"`
}

// LoadConfig reads an optional .env file, then the environment, then validates.
func LoadConfig() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	cfg.PostgresDSN = strings.TrimSpace(cfg.PostgresDSN)
	cfg.ChangeFeedDriver = strings.ToLower(strings.TrimSpace(cfg.ChangeFeedDriver))
	return cfg, cfg.Validate()
}

// Validate checks timeouts and the change feed selection.
func (c Config) Validate() error {
	var errs []error
	if c.ExternalCallTimeout <= 0 {
		errs = append(errs, errors.New("EXTERNAL_CALL_TIMEOUT must be positive"))
	}
	if c.ExternalRetryAttempts <= 0 {
		errs = append(errs, errors.New("EXTERNAL_RETRY_ATTEMPTS must be positive"))
	}
	if c.CredentialWait <= 0 {
		errs = append(errs, errors.New("CREDENTIAL_WAIT must be positive"))
	}
	if strings.TrimSpace(c.TemporalPayloadKey) != "" {
		if _, err := codec.ParseKey(c.TemporalPayloadKey); err != nil {
			errs = append(errs, fmt.Errorf("TEMPORAL_PAYLOAD_KEY: %w", err))
		}
	}
	switch c.ChangeFeedDriver {
	case FeedMemory:
	case FeedPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("CHANGEFEED_DRIVER=postgres requires POSTGRES_DSN"))
		}
	case FeedKafka:
		if strings.TrimSpace(c.KafkaBrokers) == "" {
			errs = append(errs, errors.New("CHANGEFEED_DRIVER=kafka requires KAFKA_BROKERS"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CHANGEFEED_DRIVER %q", c.ChangeFeedDriver))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
