package sources

import (
	"context"
	"strings"

	"github.com/secopslab/harmonizer/internal/transport"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/logging"
)

// APIConfig describes a tool's device-list endpoint.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"baseUrl"`
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
	Token   string `mapstructure:"token" yaml:"token" json:"-"`
	// Auth selects how the token is sent: "bearer" (default), "none",
	// "header:Name[:Scheme]" or "query:param"
	Auth string `mapstructure:"auth" yaml:"auth" json:"auth"`
}

// URL returns the full device-list URL.
func (c APIConfig) URL() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if c.Path == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(c.Path, "/")
}

// Default endpoints for the tools each category is usually served by.
var defaultAPIPaths = map[inventory.SourceID]APIConfig{
	inventory.VulnerabilityMgmt: {Path: "/api/endpoints", Auth: "bearer"},
	inventory.XDR:               {Path: "/api/v1/endpoints", Auth: "header:X-API-Token"},
	inventory.ZeroTrustNetwork:  {Path: "/v1/devices", Auth: "header:Authorization:Token"},
	inventory.PrivilegedAccess:  {Path: "/api/v1/devices", Auth: "bearer"},
	inventory.DirectoryDevice:   {Path: "/api/systems", Auth: "header:x-api-key"},
}

// APISource fetches a category's device list from a tool's HTTP API.
type APISource struct {
	category inventory.SourceID
	config   APIConfig
	client   *transport.Client
}

// NewAPISource creates an API source. Empty path and auth fall back to the
// category's usual tool defaults.
func NewAPISource(id inventory.SourceID, cfg APIConfig) (*APISource, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewValidationError("base_url", "", "API base URL is required")
	}
	def := defaultAPIPaths[id]
	if cfg.Path == "" {
		cfg.Path = def.Path
	}
	if cfg.Auth == "" {
		cfg.Auth = def.Auth
	}
	auth, err := transport.ParseAuth(cfg.Auth)
	if err != nil {
		return nil, errors.WrapValidation("auth", err)
	}
	return &APISource{
		category: id,
		config:   cfg,
		client:   transport.New(string(id), auth, cfg.Token),
	}, nil
}

// WithClient replaces the transport client.
func (s *APISource) WithClient(c *transport.Client) *APISource {
	if c != nil {
		s.client = c
	}
	return s
}

// ID implements Source.
func (s *APISource) ID() inventory.SourceID { return s.category }

// Origin implements Source.
func (s *APISource) Origin() inventory.Origin { return inventory.OriginAPI }

// Fetch requests the device list and maps the payload's fields.
func (s *APISource) Fetch(ctx context.Context) ([]inventory.Endpoint, error) {
	var payload any
	if err := s.client.GetJSON(ctx, s.config.URL(), &payload); err != nil {
		return nil, err
	}
	records, err := recordsFromPayload(payload)
	if err != nil {
		return nil, errors.WrapParse("json", s.config.URL(), err)
	}

	endpoints, skipped := endpointsFromRecords(records, s.category, inventory.OriginAPI)
	if skipped > 0 {
		logging.FromContext(ctx).Debug().
			Int("skipped", skipped).
			Msg("Skipped API records without hostname")
	}
	return endpoints, nil
}
