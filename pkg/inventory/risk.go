package inventory

import (
	"fmt"
	"strings"
)

// RiskLevel summarizes the most severe outstanding issue for an entity.
type RiskLevel string

// Risk levels, lowest to highest.
const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// String returns the string representation of a risk level.
func (l RiskLevel) String() string {
	if l == "" {
		return string(RiskNone)
	}
	return string(l)
}

// Severity orders levels numerically; unknown levels rank as none.
func (l RiskLevel) Severity() int {
	switch l {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	}
	return 0
}

// Max returns the more severe of two levels.
func (l RiskLevel) Max(other RiskLevel) RiskLevel {
	if other.Severity() > l.Severity() {
		return other
	}
	if l == "" {
		return RiskNone
	}
	return l
}

// ParseRiskLevel parses a level name case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch l := RiskLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case RiskNone, RiskLow, RiskMedium, RiskHigh:
		return l, nil
	case "":
		return RiskNone, nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}
