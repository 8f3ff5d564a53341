package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Integrations groups the settings of the two outbound HTTP collaborators
// (the LINE Messaging API and the NLP gateway) together with the shared
// outbound HTTP policy.
type Integrations struct {
	LineChannelSecret string        `envconfig:"LINE_CHANNEL_SECRET" required:"true"`
	LineAccessToken   string        `envconfig:"LINE_CHANNEL_ACCESS_TOKEN" required:"true"`
	LineAPIEndpoint   string        `envconfig:"LINE_API_ENDPOINT" default:"https://api.line.me"`
	NLPBaseURL        string        `envconfig:"NLP_BASE_URL" required:"true"`
	NLPTimeout        time.Duration `envconfig:"NLP_TIMEOUT" default:"60s"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	HTTPGetRetries    int           `envconfig:"HTTP_GET_RETRIES" default:"1"`
	WebhookDedupTTL   time.Duration `envconfig:"WEBHOOK_DEDUP_TTL" default:"10m"`
}

// LoadIntegrations reads the integration settings.  Unlike Load it returns
// an error so that cmd/diagnose can report a missing credential instead of
// exiting.
func LoadIntegrations() (Integrations, error) {
	var in Integrations
	if err := envconfig.Process("", &in); err != nil {
		return Integrations{}, fmt.Errorf("load integrations: %w", err)
	}
	// required only checks presence; an exported empty value is still missing
	switch {
	case in.LineChannelSecret == "":
		return Integrations{}, fmt.Errorf("load integrations: LINE_CHANNEL_SECRET is empty")
	case in.LineAccessToken == "":
		return Integrations{}, fmt.Errorf("load integrations: LINE_CHANNEL_ACCESS_TOKEN is empty")
	case in.NLPBaseURL == "":
		return Integrations{}, fmt.Errorf("load integrations: NLP_BASE_URL is empty")
	}
	// the outbound policy allows at most one retry and only for GETs
	if in.HTTPGetRetries < 0 {
		in.HTTPGetRetries = 0
	}
	if in.HTTPGetRetries > 1 {
		in.HTTPGetRetries = 1
	}
	if in.HTTPTimeout <= 0 {
		in.HTTPTimeout = 30 * time.Second
	}
	if in.NLPTimeout <= 0 {
		in.NLPTimeout = 60 * time.Second
	}
	return in, nil
}
