package denylist

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file of extra entries and returns the built-in lists
// extended with them. An empty path returns Default.
//
//	junk_handles: [jordi]
//	website_domains: [linktr.ee]
//	email_domains: [mydomain.invalid]
//	generic_inboxes: [office]
func Load(path string) (*Lists, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "denylist: read %s", path)
	}

	var extra Extra
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, eris.Wrapf(err, "denylist: parse %s", path)
	}

	zap.L().Debug("denylist: loaded overrides",
		zap.String("path", path),
		zap.Int("junk_handles", len(extra.JunkHandles)),
		zap.Int("website_domains", len(extra.WebsiteDomains)),
		zap.Int("email_domains", len(extra.EmailDomains)),
	)
	return build(extra), nil
}
