package policy

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
)

// Category is the policy classification of a hostname.
type Category string

// String returns the string representation of a category.
func (c Category) String() string {
	return string(c)
}

// Categories.
const (
	CategoryWorkstation     Category = "workstation"
	CategoryServer          Category = "server"
	CategoryNamingViolation Category = "naming-violation"
)

// IsValid returns true if the category is one of the defined constants.
func (c Category) IsValid() bool {
	switch c {
	case CategoryWorkstation, CategoryServer, CategoryNamingViolation:
		return true
	}
	return false
}

// IsWorkstation reports whether the category belongs to the workstation
// family. Naming violations are workstations that failed the exact pattern.
func (c Category) IsWorkstation() bool {
	return c == CategoryWorkstation || c == CategoryNamingViolation
}

// Rule is one row of the ordered classification table. A hostname matches a
// rule when it starts with Prefix (if set) and matches Pattern (if set).
type Rule struct {
	Name          string               `json:"name" yaml:"name"`
	Prefix        string               `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Pattern       string               `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Category      Category             `json:"category" yaml:"category"`
	Required      []inventory.SourceID `json:"required" yaml:"required"`
	Informational []inventory.SourceID `json:"informational,omitempty" yaml:"informational,omitempty"`
	Reason        string               `json:"reason,omitempty" yaml:"reason,omitempty"` // naming violation text

	re *regexp.Regexp
}

// compile validates the rule and prepares its pattern.
func (r *Rule) compile(field string) error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.NewValidationError(field+".name", r.Name, "rule name is required")
	}
	if !r.Category.IsValid() {
		return errors.NewValidationError(field+".category", r.Category, fmt.Sprintf("unknown category %q", r.Category))
	}
	r.Prefix = strings.ToLower(strings.TrimSpace(r.Prefix))
	r.re = nil
	if r.Pattern != "" {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return errors.NewValidationError(field+".pattern", r.Pattern, err.Error())
		}
		r.re = re
	}
	if err := validateSources(field+".required", r.Required); err != nil {
		return err
	}
	if err := validateSources(field+".informational", r.Informational); err != nil {
		return err
	}
	for _, id := range r.Informational {
		if slices.Contains(r.Required, id) {
			return errors.NewValidationError(field+".informational", id, fmt.Sprintf("source %s is already required", id))
		}
	}
	if r.Category == CategoryNamingViolation && r.Reason == "" {
		r.Reason = DefaultNamingViolationReason
	}
	return nil
}

func validateSources(field string, ids []inventory.SourceID) error {
	seen := make(map[inventory.SourceID]bool, len(ids))
	for _, id := range ids {
		if !id.IsValid() {
			return errors.NewValidationError(field, id, fmt.Sprintf("unknown source %q", id))
		}
		if seen[id] {
			return errors.NewValidationError(field, id, fmt.Sprintf("duplicate source %q", id))
		}
		seen[id] = true
	}
	return nil
}

// Matches reports whether the normalized hostname satisfies the rule.
// A rule with neither prefix nor pattern never matches.
func (r *Rule) Matches(hostname string) bool {
	if r.Prefix == "" && r.Pattern == "" {
		return false
	}
	if r.Prefix != "" && !strings.HasPrefix(hostname, strings.ToLower(r.Prefix)) {
		return false
	}
	if r.Pattern == "" {
		return true
	}
	re := r.re
	if re == nil {
		// rule built by hand and never validated
		var err error
		if re, err = regexp.Compile("(?i)" + r.Pattern); err != nil {
			return false
		}
	}
	return re.MatchString(hostname)
}
