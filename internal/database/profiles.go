package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/twin-insights/internal/models"
	"github.com/lib/pq"
)

// ErrNoProfilesAvailable is returned when no active profile is eligible for a product
var ErrNoProfilesAvailable = errors.New("no profiles available")

const (
	// DefaultProfileLimit is the maximum number of profiles fed into one insight prompt
	DefaultProfileLimit = 5
	// DefaultProfileScanWindow is how many active profiles are inspected before filtering
	DefaultProfileScanWindow = 20
)

// DefaultRelevanceFields are the payload attributes that make a profile useful for food products
var DefaultRelevanceFields = []string{"eating_habits", "health_wellness", "purchase_behavior", "lifestyle"}

// ProfileFilter reports whether an active profile is relevant to a product
type ProfileFilter func(product models.Product, profile *models.Profile) bool

// FieldPresenceFilter accepts profiles holding a non-empty value for any of fields
func FieldPresenceFilter(fields []string) ProfileFilter {
	keys := normalizeFields(fields)
	return func(_ models.Product, profile *models.Profile) bool {
		for _, key := range keys {
			if profile.HasField(key) {
				return true
			}
		}
		return false
	}
}

// ParseRelevanceFields splits a comma-separated field list, falling back to DefaultRelevanceFields
func ParseRelevanceFields(raw string) []string {
	fields := normalizeFields(strings.Split(raw, ","))
	if len(fields) == 0 {
		return append([]string(nil), DefaultRelevanceFields...)
	}
	return fields
}

func normalizeFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// ProfileRepository reads digital twin profiles from the profile_versions table
type ProfileRepository struct {
	db                *DB
	fields            []string
	filter            ProfileFilter
	scanWindow        int
	fallbackAnyActive bool
}

// ProfileRepositoryOption configures a ProfileRepository
type ProfileRepositoryOption func(*ProfileRepository)

// WithRelevanceFields sets the payload fields used to rank and filter profiles
func WithRelevanceFields(fields []string) ProfileRepositoryOption {
	return func(r *ProfileRepository) {
		r.fields = normalizeFields(fields)
		r.filter = FieldPresenceFilter(r.fields)
	}
}

// WithProfileFilter replaces the relevance predicate
func WithProfileFilter(filter ProfileFilter) ProfileRepositoryOption {
	return func(r *ProfileRepository) {
		if filter != nil {
			r.filter = filter
		}
	}
}

// WithScanWindow sets how many active rows are read before filtering
func WithScanWindow(n int) ProfileRepositoryOption {
	return func(r *ProfileRepository) {
		if n > 0 {
			r.scanWindow = n
		}
	}
}

// WithFallbackToAnyActive makes the repository return unfiltered active profiles
// when none of the scanned profiles pass the relevance filter
func WithFallbackToAnyActive(enabled bool) ProfileRepositoryOption {
	return func(r *ProfileRepository) {
		r.fallbackAnyActive = enabled
	}
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB, opts ...ProfileRepositoryOption) *ProfileRepository {
	r := &ProfileRepository{
		db:         db,
		fields:     append([]string(nil), DefaultRelevanceFields...),
		scanWindow: DefaultProfileScanWindow,
	}
	r.filter = FieldPresenceFilter(r.fields)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchActiveProfiles returns up to limit active profiles relevant to product.
// It returns ErrNoProfilesAvailable when nothing is eligible.
func (r *ProfileRepository) FetchActiveProfiles(ctx context.Context, product models.Product, limit int) ([]*models.Profile, error) {
	if limit <= 0 {
		limit = DefaultProfileLimit
	}
	scan := r.scanWindow
	if scan < limit {
		scan = limit
	}

	// Relevant rows sort first so the scan window is not spent on sparse profiles.
	query := `
		SELECT profile_id, person_name, is_active, profile_data, updated_at
		FROM profile_versions
		WHERE is_active = true
		ORDER BY COALESCE(profile_data ?| $1, false) DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(r.fields), scan)
	if err != nil {
		return nil, fmt.Errorf("failed to query active profiles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	candidates := make([]*models.Profile, 0, scan)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return selectProfiles(candidates, product, limit, r.filter, r.fallbackAnyActive)
}

// GetByID retrieves a single profile version by its identifier (e.g. "Rachita_v2")
func (r *ProfileRepository) GetByID(ctx context.Context, profileID string) (*models.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT profile_id, person_name, is_active, profile_data, updated_at
		FROM profile_versions
		WHERE profile_id = $1
	`, profileID)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	profile := &models.Profile{}
	var personName sql.NullString
	var dataJSON []byte
	var updatedAt pq.NullTime

	if err := row.Scan(&profile.ID, &personName, &profile.Active, &dataJSON, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	profile.PersonName = personName.String
	if updatedAt.Valid {
		profile.UpdatedAt = updatedAt.Time
	}

	data, err := decodeProfileData(dataJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", profile.ID, err)
	}
	profile.Data = data
	return profile, nil
}

func decodeProfileData(raw []byte) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// selectProfiles applies the active and relevance rules to scanned candidates
func selectProfiles(candidates []*models.Profile, product models.Product, limit int, filter ProfileFilter, fallbackAnyActive bool) ([]*models.Profile, error) {
	selected := make([]*models.Profile, 0, limit)
	for _, p := range candidates {
		if p == nil || !p.Active {
			continue
		}
		if filter != nil && !filter(product, p) {
			continue
		}
		selected = append(selected, p)
		if len(selected) >= limit {
			break
		}
	}

	if len(selected) == 0 && fallbackAnyActive {
		for _, p := range candidates {
			if p == nil || !p.Active {
				continue
			}
			selected = append(selected, p)
			if len(selected) >= limit {
				break
			}
		}
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoProfilesAvailable, product)
	}
	return selected, nil
}
