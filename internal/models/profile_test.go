package models

import "testing"

func TestProfileHasField(t *testing.T) {
	t.Parallel()

	profile := &Profile{
		ID: "Rachita_v2",
		Data: map[string]any{
			"eating_habits":     map[string]any{"breakfast": "oats"},
			"purchase_behavior": map[string]any{},
			"lifestyle":         "",
			"summary":           "Busy parent",
			"health_wellness":   []any{},
			"age":               float64(34),
			"notes":             nil,
		},
	}

	tests := []struct {
		field string
		want  bool
	}{
		{"eating_habits", true},
		{"purchase_behavior", false},
		{"lifestyle", false},
		{"summary", true},
		{"health_wellness", false},
		{"age", true},
		{"notes", false},
		{"missing", false},
	}

	for _, tt := range tests {
		if got := profile.HasField(tt.field); got != tt.want {
			t.Errorf("HasField(%q) = %v, want %v", tt.field, got, tt.want)
		}
	}

	var nilProfile *Profile
	if nilProfile.HasField("summary") {
		t.Error("Expected nil profile to report no fields")
	}
}
