package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on. Modes are
// "discovery", "enrich", "serve" and "store".
func (c *Config) Validate(mode string) error {
	var problems []string
	req := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	storeChecks := func() {
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
		req(c.Store.DatabaseURL != "", "store.database_url is required")
	}

	switch mode {
	case "store":
		storeChecks()
	case "discovery":
		storeChecks()
		req(c.Brave.Key != "" || c.Perplexity.Key != "", "brave.key or perplexity.key is required")
		req(c.Discovery.FetchConcurrency >= 1 && c.Discovery.FetchConcurrency <= 50,
			"discovery.fetch_concurrency must be between 1 and 50")
		req(c.Discovery.SearchRetries >= 0, "discovery.search_retries must be >= 0")
	case "enrich":
		storeChecks()
		req(c.Perplexity.Key != "", "perplexity.key is required")
	case "serve":
		storeChecks()
		req(c.Server.Port > 0, "server.port must be > 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	req(c.Validation.MaxSocialChecks >= 0, "validate.max_social_checks must be >= 0")
	req(c.Validation.MaxWebsiteChecks >= 0, "validate.max_website_checks must be >= 0")

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
