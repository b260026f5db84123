package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// Holds the curated logo override table and provider tuning, which are
// easier to manage in YAML than env vars.
type YAMLConfig struct {
	Overrides []OverrideConfig `yaml:"overrides"`
	Providers ProvidersConfig  `yaml:"providers"`
}

// OverrideConfig pins an exact, manually vetted logo URL to a catalog entry.
// Used for entries where automated resolution is known to be unreliable.
type OverrideConfig struct {
	EntityID string `yaml:"entity_id"`
	URL      string `yaml:"url"`
}

// ProvidersConfig toggles individual resolution strategies.
type ProvidersConfig struct {
	DisableFaviconAPIs bool `yaml:"disable_favicon_apis"`
	DisableBrandAPI    bool `yaml:"disable_brand_api"`
	DisableHTMLScrape  bool `yaml:"disable_html_scrape"`
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	path := getEnv("CONFIG_FILE", "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// OverrideMap returns the override table keyed by entity ID.
func (c *YAMLConfig) OverrideMap() map[string]string {
	if c == nil {
		return nil
	}
	m := make(map[string]string, len(c.Overrides))
	for _, o := range c.Overrides {
		if o.EntityID != "" && o.URL != "" {
			m[o.EntityID] = o.URL
		}
	}
	return m
}
