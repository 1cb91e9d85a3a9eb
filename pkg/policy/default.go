package policy

import (
	"regexp"
	"strings"

	"github.com/secopslab/harmonizer/pkg/inventory"
)

// Default rule names.
const (
	RuleWorkstationLinux    = "workstation-linux"
	RuleWorkstationStandard = "workstation-standard"
	RuleWorkstationNaming   = "workstation-naming-violation"
	RuleServer              = "server"
)

// WorkstationPrefix is the organizational hostname prefix of managed
// workstations.
const WorkstationPrefix = "exa-"

// Default returns the built-in policy:
//
//	exa-arklx-<n>          workstation, privileged-access exempt
//	exa-<x>-<n>, exa-<x><n> workstation, all five sources
//	exa-*                  naming violation, all five sources
//	anything else          server, vulnerability-mgmt and xdr
func Default() *Policy {
	p, err := New("default", DefaultRules(WorkstationPrefix), DefaultFallback())
	if err != nil {
		panic("policy: invalid built-in policy: " + err.Error())
	}
	return p
}

// DefaultRules returns the workstation rule table for the given prefixes,
// in evaluation order. Each prefix gets its own linux, standard and naming
// rules.
func DefaultRules(prefixes ...string) []Rule {
	linux := []inventory.SourceID{
		inventory.VulnerabilityMgmt,
		inventory.XDR,
		inventory.ZeroTrustNetwork,
		inventory.DirectoryDevice,
	}
	standard := []inventory.SourceID{
		inventory.VulnerabilityMgmt,
		inventory.XDR,
		inventory.ZeroTrustNetwork,
		inventory.DirectoryDevice,
		inventory.PrivilegedAccess,
	}

	var rules []Rule
	for i, prefix := range prefixes {
		suffix := ""
		if i > 0 {
			suffix = "-" + strings.Trim(strings.ToLower(prefix), "-")
		}
		rules = append(rules,
			Rule{
				Name:     RuleWorkstationLinux + suffix,
				Prefix:   prefix,
				Pattern:  `^` + quote(prefix) + `arklx-\d+$`,
				Category: CategoryWorkstation,
				Required: linux,
			},
			Rule{
				Name:     RuleWorkstationStandard + suffix,
				Prefix:   prefix,
				Pattern:  `^` + quote(prefix) + `[a-z]+-?\d+$`,
				Category: CategoryWorkstation,
				Required: standard,
			},
			Rule{
				Name:     RuleWorkstationNaming + suffix,
				Prefix:   prefix,
				Category: CategoryNamingViolation,
				Required: standard,
				Reason:   DefaultNamingViolationReason,
			},
		)
	}
	return rules
}

// DefaultFallback returns the server rule. zero-trust-network is tracked
// for servers but never enforced.
func DefaultFallback() Rule {
	return Rule{
		Name:          RuleServer,
		Category:      CategoryServer,
		Required:      []inventory.SourceID{inventory.VulnerabilityMgmt, inventory.XDR},
		Informational: []inventory.SourceID{inventory.ZeroTrustNetwork},
	}
}

func quote(s string) string {
	return regexp.QuoteMeta(strings.ToLower(s))
}
