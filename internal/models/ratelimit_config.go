package models

import "time"

// RatelimitConfig holds the per-client request rate for query routes (e.g. "5-S", "30-M").
type RatelimitConfig struct {
	ConfigKey string    `json:"config_key"`
	Rate      string    `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
}
