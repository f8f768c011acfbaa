package models

import (
	"encoding/json"
	"slices"
	"time"
)

type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityWarning   Severity = "warning"
	SeverityEmergency Severity = "emergency"
)

// Rank orders severities for display priority: emergency > warning > info.
func (s Severity) Rank() int {
	switch s {
	case SeverityEmergency:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityEmergency:
		return true
	}
	return false
}

// TargetScope is an advisory label; visibility is decided by TargetRegions alone.
type TargetScope string

const (
	ScopeGlobal   TargetScope = "global"
	ScopeState    TargetScope = "state"
	ScopeDistrict TargetScope = "district"
	ScopeCity     TargetScope = "city"
)

func (s TargetScope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeState, ScopeDistrict, ScopeCity:
		return true
	}
	return false
}

type TargetRegions struct {
	States    []string `json:"states"`
	Districts []string `json:"districts"`
	Cities    []string `json:"cities"`
}

// IsGlobal reports whether no region set is populated.
func (r TargetRegions) IsGlobal() bool {
	return len(r.States) == 0 && len(r.Districts) == 0 && len(r.Cities) == 0
}

// Normalize drops duplicate and empty names and replaces nil sets with empty ones.
func (r TargetRegions) Normalize() TargetRegions {
	return TargetRegions{
		States:    uniqueNames(r.States),
		Districts: uniqueNames(r.Districts),
		Cities:    uniqueNames(r.Cities),
	}
}

// UnmarshalJSON treats any set that is not an array of strings as empty
// instead of rejecting the whole document.
func (r *TargetRegions) UnmarshalJSON(data []byte) error {
	*r = TargetRegions{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	r.States = lenientStrings(raw["states"])
	r.Districts = lenientStrings(raw["districts"])
	r.Cities = lenientStrings(raw["cities"])
	return nil
}

func lenientStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

type Alert struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	Severity            Severity      `json:"severity"`
	Source              string        `json:"source"`
	TargetInstitutionID string        `json:"targetInstitutionId,omitempty"`
	TargetScope         TargetScope   `json:"targetScope"`
	TargetRegions       TargetRegions `json:"targetRegions"`
	IssuedBy            string        `json:"issuedBy,omitempty"`
	Active              bool          `json:"active"`
	ExpiresAt           *time.Time    `json:"expiresAt,omitempty"`
	CreatedAt           time.Time     `json:"createdAt"`
}

// Expired reports whether ExpiresAt is set and not after now.
func (a *Alert) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}
