// Package policy classifies hostnames into workstation and server
// categories and derives the set of sources each device must appear in.
//
// A Policy is an ordered table of rules evaluated top to bottom; the first
// matching rule wins. Hostnames no rule matches, including empty ones, fall
// through to the fallback rule, which is the server policy. Classification
// depends on the hostname alone, never on which sources reported it.
package policy

import (
	"slices"
	"strconv"
	"strings"

	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
)

// DefaultNamingViolationReason is used for naming-violation rules without
// their own reason text.
const DefaultNamingViolationReason = "hostname does not match the workstation naming convention"

// Policy is an ordered rule table plus a fallback rule.
type Policy struct {
	Name     string `json:"name" yaml:"name"`
	Rules    []Rule `json:"rules" yaml:"rules"`
	Fallback Rule   `json:"fallback" yaml:"fallback"`
}

// Classification is the outcome of classifying one hostname.
type Classification struct {
	Hostname        string               `json:"hostname" yaml:"hostname"`
	Category        Category             `json:"category" yaml:"category"`
	Rule            string               `json:"rule" yaml:"rule"`
	Required        []inventory.SourceID `json:"required" yaml:"required"`
	Informational   []inventory.SourceID `json:"informational,omitempty" yaml:"informational,omitempty"`
	NamingViolation bool                 `json:"namingViolation" yaml:"namingViolation"`
	Reason          string               `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Missing returns the required sources absent from sources, in rule order.
func (c Classification) Missing(sources []inventory.SourceID) []inventory.SourceID {
	var missing []inventory.SourceID
	for _, id := range c.Required {
		if !slices.Contains(sources, id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// Requires reports whether id is in the required set.
func (c Classification) Requires(id inventory.SourceID) bool {
	return slices.Contains(c.Required, id)
}

// New builds and validates a policy.
func New(name string, rules []Rule, fallback Rule) (*Policy, error) {
	p := &Policy{Name: name, Rules: rules, Fallback: fallback}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks every rule and compiles the patterns. Rule names must be
// unique and the fallback must classify as server, without a matcher.
func (p *Policy) Validate() error {
	if p == nil {
		return errors.NewValidationError("policy", nil, "policy is nil")
	}
	names := make(map[string]bool, len(p.Rules)+1)
	for i := range p.Rules {
		field := "rules[" + strconv.Itoa(i) + "]"
		if err := p.Rules[i].compile(field); err != nil {
			return err
		}
		if p.Rules[i].Prefix == "" && p.Rules[i].Pattern == "" {
			return errors.NewValidationError(field, p.Rules[i].Name, "rule needs a prefix or a pattern")
		}
		if names[p.Rules[i].Name] {
			return errors.NewValidationError(field+".name", p.Rules[i].Name, "duplicate rule name")
		}
		names[p.Rules[i].Name] = true
	}
	if p.Fallback.Category == "" {
		p.Fallback.Category = CategoryServer
	}
	if p.Fallback.Name == "" {
		p.Fallback.Name = string(CategoryServer)
	}
	if err := p.Fallback.compile("fallback"); err != nil {
		return err
	}
	if p.Fallback.Category != CategoryServer {
		return errors.NewValidationError("fallback.category", p.Fallback.Category, "fallback must classify as server")
	}
	if p.Fallback.Prefix != "" || p.Fallback.Pattern != "" {
		return errors.NewValidationError("fallback", p.Fallback.Name, "fallback rule cannot have a matcher")
	}
	return nil
}

// Classify returns the classification of hostname using the first matching
// rule. The hostname is trimmed and lowercased first.
func (p *Policy) Classify(hostname string) Classification {
	key := strings.ToLower(strings.TrimSpace(hostname))
	rule := &p.Fallback
	if key != "" {
		for i := range p.Rules {
			if p.Rules[i].Matches(key) {
				rule = &p.Rules[i]
				break
			}
		}
	}
	c := Classification{
		Hostname:        key,
		Category:        rule.Category,
		Rule:            rule.Name,
		Required:        slices.Clone(rule.Required),
		Informational:   slices.Clone(rule.Informational),
		NamingViolation: rule.Category == CategoryNamingViolation,
	}
	if c.NamingViolation {
		c.Reason = rule.Reason
		if c.Reason == "" {
			c.Reason = DefaultNamingViolationReason
		}
	}
	return c
}

// RequiredSources returns the sources hostname must be reported by.
func (p *Policy) RequiredSources(hostname string) []inventory.SourceID {
	return p.Classify(hostname).Required
}

// IsCompliant reports whether the entity appears in every required source.
func (p *Policy) IsCompliant(e *inventory.NormalizedEndpoint) bool {
	return e.HasAllSources(p.RequiredSources(e.Hostname))
}

// MissingSources returns the required sources the entity is absent from, in
// rule order.
func (p *Policy) MissingSources(e *inventory.NormalizedEndpoint) []inventory.SourceID {
	return p.Classify(e.Hostname).Missing(e.Sources)
}
