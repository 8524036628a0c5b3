package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_RELAY_URL is the base HTTP address of a running relay. Scenarios are skipped when empty.
	RelayURL string `envconfig:"E2E_RELAY_URL"`
	// E2E_ADMIN_ADDR is the gRPC admin address exposing the health service
	AdminAddr string `envconfig:"E2E_ADMIN_ADDR"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours  bool   `envconfig:"E2E_COLOURS" default:"true"`
	Password string `envconfig:"E2E_PASSWORD" default:"e2e-password"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
