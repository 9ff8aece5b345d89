// Package config defines the process configuration for the messenger relay.
// Configuration is loaded once at process start and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or an invalid format fails startup.
package config

import (
	"time"

	"messengerbot/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type used
// throughout configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// DefaultGraphAPIURL is the Send API endpoint used when GRAPH_API_URL is unset.
const DefaultGraphAPIURL = "https://graph.facebook.com/v3.2/me/messages"

// DefaultCardImageURL is the image shown on every notification card.
const DefaultCardImageURL = "https://messenger.vzs-jablonec.cz/img/message.png"

// Config is the top-level configuration struct.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"messenger-relay"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Bot           BotConfig
	Messenger     MessengerConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s" validate:"gt=0"`
}

// BotConfig identifies the page the relay speaks for and the secrets shared
// with the platform.
type BotConfig struct {
	AccessToken SecretString `envconfig:"PAGE_ACCESS_TOKEN" validate:"required"`
	BotID       string       `envconfig:"BOT_ID" validate:"required"`
	// VerifyToken answers the GET /webhook handshake. Only cmd/api serves
	// it and requires it there; the worker runs without one.
	VerifyToken SecretString `envconfig:"VERIFY_TOKEN"`
	// AppSecret enables X-Hub-Signature-256 verification of page webhooks.
	AppSecret SecretString `envconfig:"APP_SECRET"`
}

// Identity returns the per-request bot identity derived from configuration.
func (b BotConfig) Identity() types.BotIdentity {
	return types.BotIdentity{
		AccessToken: b.AccessToken,
		BotID:       b.BotID,
	}
}

// MessengerConfig holds settings for the outbound Send API client and the
// notification fan-out.
type MessengerConfig struct {
	GraphAPIURL          string        `envconfig:"GRAPH_API_URL" validate:"required,http_url"`
	CardImageURL         string        `envconfig:"CARD_IMAGE_URL" validate:"required,http_url"`
	Timeout              time.Duration `envconfig:"MESSENGER_TIMEOUT" default:"10s" validate:"gt=0"`
	UserAgent            string        `envconfig:"MESSENGER_USER_AGENT" default:"MessengerRelay/1.0"`
	BroadcastConcurrency int           `envconfig:"BROADCAST_CONCURRENCY" default:"8" validate:"min=1,max=64"`
}

// AWSConfig holds regional configuration for SSM and CloudWatch.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"eu-central-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"MessengerRelay"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
