package sources

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
)

// SourceConfig configures one category. The first usable option wins:
// API (base URL and token), then file import, then sample data.
type SourceConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty" json:"baseUrl,omitempty"`
	Path    string `mapstructure:"path" yaml:"path,omitempty" json:"path,omitempty"`
	Token   string `mapstructure:"api_token" yaml:"api_token,omitempty" json:"-"`
	// TokenEnv names an environment variable read when Token is empty
	TokenEnv string `mapstructure:"token_env" yaml:"token_env,omitempty" json:"tokenEnv,omitempty"`
	Auth     string `mapstructure:"auth" yaml:"auth,omitempty" json:"auth,omitempty"`
	File     string `mapstructure:"file" yaml:"file,omitempty" json:"file,omitempty"`
	// Sample overrides Config.Sample for this category when set
	Sample *bool `mapstructure:"sample" yaml:"sample,omitempty" json:"sample,omitempty"`
}

// token resolves the API token, falling back to TokenEnv.
func (c SourceConfig) token() string {
	if c.Token != "" {
		return c.Token
	}
	if c.TokenEnv != "" {
		return os.Getenv(c.TokenEnv)
	}
	return ""
}

// hasAPI reports whether the API is fully configured.
func (c SourceConfig) hasAPI() bool {
	if c.BaseURL == "" {
		return false
	}
	return c.token() != "" || strings.EqualFold(c.Auth, "none")
}

// Config configures all categories.
type Config struct {
	Sources map[string]SourceConfig `mapstructure:"sources" yaml:"sources" json:"sources"`
	// Sample fills categories that have neither API nor file configured
	Sample bool `mapstructure:"sample" yaml:"sample" json:"sample"`
}

// Select picks the source for a category by precedence. It returns nil
// when nothing is configured and sample data is off, in which case the
// category contributes an empty list.
func Select(id inventory.SourceID, cfg SourceConfig, sample bool) (Source, error) {
	if cfg.hasAPI() {
		src, err := NewAPISource(id, APIConfig{
			BaseURL: cfg.BaseURL,
			Path:    cfg.Path,
			Token:   cfg.token(),
			Auth:    cfg.Auth,
		})
		if err != nil {
			return nil, errors.WrapValidation("sources."+string(id), err)
		}
		return src, nil
	}
	if cfg.File != "" {
		return NewFileSource(id, cfg.File), nil
	}
	if cfg.Sample != nil {
		sample = *cfg.Sample
	}
	if sample {
		return NewSampleSource(id), nil
	}
	return nil, nil
}

// Build resolves a source for every category. Config keys may use any
// accepted category alias.
func Build(cfg Config) (*Sources, error) {
	keys := make([]string, 0, len(cfg.Sources))
	for key := range cfg.Sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	byID := make(map[inventory.SourceID]SourceConfig, len(cfg.Sources))
	seen := make(map[inventory.SourceID]string, len(cfg.Sources))
	for _, key := range keys {
		id, err := inventory.ParseSourceID(key)
		if err != nil {
			return nil, errors.WrapValidation("sources."+key, err)
		}
		if prev, ok := seen[id]; ok {
			return nil, errors.NewValidationError("sources."+key, key,
				fmt.Sprintf("keys %q and %q both configure the %s source", prev, key, id))
		}
		seen[id] = key
		byID[id] = cfg.Sources[key]
	}

	srcs := NewSources()
	for _, id := range inventory.SourceIDs() {
		src, err := Select(id, byID[id], cfg.Sample)
		if err != nil {
			return nil, err
		}
		if src != nil {
			srcs.Set(src)
		}
	}
	return srcs, nil
}

// Sample returns sample sources for every category.
func Sample() *Sources {
	srcs := NewSources()
	for _, id := range inventory.SourceIDs() {
		srcs.Set(NewSampleSource(id))
	}
	return srcs
}
