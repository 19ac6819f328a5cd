package models

import (
	"time"
)

// Profile is an AI digital twin profile version.
// Profiles are created and curated elsewhere and are read-only in this service.
type Profile struct {
	ID         string         `json:"profile_id"`
	PersonName string         `json:"person_name"`
	Active     bool           `json:"is_active"`
	Data       map[string]any `json:"profile_data"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Field returns a top-level payload attribute
func (p *Profile) Field(name string) (any, bool) {
	if p == nil || p.Data == nil {
		return nil, false
	}
	v, ok := p.Data[name]
	return v, ok
}

// HasField reports whether the payload holds a non-empty value for name.
// Empty strings, empty arrays and empty objects count as missing.
func (p *Profile) HasField(name string) bool {
	v, ok := p.Field(name)
	if !ok || v == nil {
		return false
	}
	switch val := v.(type) {
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
