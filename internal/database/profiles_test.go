package database

import (
	"errors"
	"slices"
	"testing"

	"github.com/benvon/twin-insights/internal/models"
)

func profileWith(id string, active bool, data map[string]any) *models.Profile {
	return &models.Profile{ID: id, PersonName: id, Active: active, Data: data}
}

func profileIDs(profiles []*models.Profile) []string {
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestSelectProfiles(t *testing.T) {
	t.Parallel()

	food := map[string]any{"eating_habits": map[string]any{"snacks": "pickles"}}
	sparse := map[string]any{"summary": "Enjoys hiking"}
	filter := FieldPresenceFilter(DefaultRelevanceFields)

	tests := []struct {
		name     string
		input    []*models.Profile
		limit    int
		fallback bool
		wantIDs  []string
		wantErr  bool
	}{
		{
			name: "keeps only active relevant profiles",
			input: []*models.Profile{
				profileWith("a", true, food),
				profileWith("b", false, food),
				profileWith("c", true, sparse),
				profileWith("d", true, food),
			},
			limit:   5,
			wantIDs: []string{"a", "d"},
		},
		{
			name: "caps at limit",
			input: []*models.Profile{
				profileWith("a", true, food),
				profileWith("b", true, food),
				profileWith("c", true, food),
				profileWith("d", true, food),
				profileWith("e", true, food),
				profileWith("f", true, food),
			},
			limit:   5,
			wantIDs: []string{"a", "b", "c", "d", "e"},
		},
		{
			name:    "no candidates",
			input:   nil,
			limit:   5,
			wantErr: true,
		},
		{
			name: "only inactive profiles",
			input: []*models.Profile{
				profileWith("a", false, food),
			},
			limit:    5,
			fallback: true,
			wantErr:  true,
		},
		{
			name: "no relevant profiles without fallback",
			input: []*models.Profile{
				profileWith("a", true, sparse),
			},
			limit:   5,
			wantErr: true,
		},
		{
			name: "no relevant profiles with fallback",
			input: []*models.Profile{
				profileWith("a", true, sparse),
				profileWith("b", false, sparse),
				profileWith("c", true, nil),
			},
			limit:    5,
			fallback: true,
			wantIDs:  []string{"a", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := selectProfiles(tt.input, models.ProductPickles, tt.limit, filter, tt.fallback)
			if tt.wantErr {
				if !errors.Is(err, ErrNoProfilesAvailable) {
					t.Fatalf("Expected ErrNoProfilesAvailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ids := profileIDs(got); !slices.Equal(ids, tt.wantIDs) {
				t.Errorf("Expected profiles %v, got %v", tt.wantIDs, ids)
			}
		})
	}
}

func TestSelectProfiles_CustomFilter(t *testing.T) {
	t.Parallel()

	onlyOats := func(product models.Product, p *models.Profile) bool {
		return product == models.ProductOvernightOats && p.HasField("breakfast")
	}
	input := []*models.Profile{
		profileWith("a", true, map[string]any{"breakfast": "oats"}),
		profileWith("b", true, map[string]any{"eating_habits": "varied"}),
	}

	got, err := selectProfiles(input, models.ProductOvernightOats, 5, onlyOats, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ids := profileIDs(got); !slices.Equal(ids, []string{"a"}) {
		t.Errorf("Expected [a], got %v", ids)
	}

	if _, err := selectProfiles(input, models.ProductPickles, 5, onlyOats, false); !errors.Is(err, ErrNoProfilesAvailable) {
		t.Errorf("Expected ErrNoProfilesAvailable for pickles, got %v", err)
	}
}

func TestParseRelevanceFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want []string
	}{
		{"", DefaultRelevanceFields},
		{" , ", DefaultRelevanceFields},
		{"lifestyle", []string{"lifestyle"}},
		{"eating_habits, lifestyle ,eating_habits", []string{"eating_habits", "lifestyle"}},
	}
	for _, tt := range tests {
		if got := ParseRelevanceFields(tt.raw); !slices.Equal(got, tt.want) {
			t.Errorf("ParseRelevanceFields(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestDecodeProfileData(t *testing.T) {
	t.Parallel()

	data, err := decodeProfileData([]byte(`{"summary":"Night-shift nurse","demographics":{"age":41}}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if data["summary"] != "Night-shift nurse" {
		t.Errorf("Expected summary to decode, got %v", data["summary"])
	}

	for _, raw := range [][]byte{nil, []byte("null")} {
		data, err := decodeProfileData(raw)
		if err != nil {
			t.Fatalf("decodeProfileData(%q) unexpected error: %v", raw, err)
		}
		if data == nil || len(data) != 0 {
			t.Errorf("decodeProfileData(%q) = %v, want empty map", raw, data)
		}
	}

	if _, err := decodeProfileData([]byte(`[1,2]`)); err == nil {
		t.Error("Expected error for non-object payload")
	}
}

func TestNewProfileRepository_Defaults(t *testing.T) {
	t.Parallel()

	repo := NewProfileRepository(nil)
	if repo.scanWindow != DefaultProfileScanWindow || DefaultProfileScanWindow != 20 {
		t.Errorf("Expected default scan window 20, got %d", repo.scanWindow)
	}

	repo = NewProfileRepository(nil, WithScanWindow(0))
	if repo.scanWindow != DefaultProfileScanWindow {
		t.Errorf("Expected non-positive window to keep the default, got %d", repo.scanWindow)
	}

	repo = NewProfileRepository(nil, WithScanWindow(7))
	if repo.scanWindow != 7 {
		t.Errorf("Expected scan window 7, got %d", repo.scanWindow)
	}
}
