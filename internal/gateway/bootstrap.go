package gateway

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nulzo/oneai-gateway/internal/cli"
	"github.com/nulzo/oneai-gateway/internal/config"
	"github.com/nulzo/oneai-gateway/internal/llm"
)

// BootstrapProviders builds one adapter per registered vendor. Vendors
// without a key are built too, so calls to them fail with a
// ConfigurationError that the degradation policy understands.
func BootstrapProviders(cfg *config.Config, log *zap.Logger) map[llm.ProviderID]llm.Provider {
	factory := llm.NewProviderFactory()
	providers := make(map[llm.ProviderID]llm.Provider)
	configured := 0

	for _, id := range llm.Registered() {
		pCfg := llm.ProviderConfig{
			ID:           id,
			APIKey:       cfg.Credentials.Key(id),
			BaseURL:      cfg.Gateway.BaseURL(id),
			PollInterval: cfg.Gateway.PollInterval,
			Options:      cfg.Gateway.Options[string(id)],
		}

		p, err := factory.CreateProvider(pCfg)
		if err != nil {
			log.Error("Failed to initialize provider", zap.String("id", string(id)), zap.Error(err))
			continue
		}
		providers[id] = p

		present := cfg.Credentials.Present(id)
		if present {
			configured++
		}
		log.Info(fmt.Sprintf("%s %s", cli.Status(present), cli.Style(llm.DisplayName(id), cli.Bold)),
			zap.String("env", llm.EnvVar(id)),
			zap.Bool("configured", present),
		)
	}

	if configured == 0 {
		log.Warn(fmt.Sprintf("%s No provider keys found. Chat and image requests will fail and media requests will return demo content.", cli.WarningSign()))
	}

	return providers
}
