package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pokemcp/pkg/logging"
)

const (
	// DefaultTable is the PostgREST table holding profiles.
	DefaultTable = "profiles"

	defaultRESTTimeout = 10 * time.Second
	subsystem          = "ProfileStore"
)

// RESTConfig configures a RESTStore.
type RESTConfig struct {
	// URL is the Supabase project URL.
	URL string

	// ServiceRoleKey authorizes access to the table regardless of row
	// level security.
	ServiceRoleKey string

	// Table defaults to DefaultTable.
	Table string

	Timeout time.Duration
}

// RESTStore is a Store backed by the Supabase PostgREST API.
type RESTStore struct {
	endpoint   string
	key        string
	httpClient *http.Client
}

// RESTOption configures a RESTStore.
type RESTOption func(*RESTStore)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) RESTOption {
	return func(s *RESTStore) {
		s.httpClient = httpClient
	}
}

// NewRESTStore creates a PostgREST-backed store.
func NewRESTStore(cfg RESTConfig, opts ...RESTOption) (*RESTStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("profile store URL is required")
	}
	if cfg.ServiceRoleKey == "" {
		return nil, errors.New("profile store requires the service role key")
	}

	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRESTTimeout
	}

	s := &RESTStore{
		endpoint:   strings.TrimSuffix(cfg.URL, "/") + "/rest/v1/" + url.PathEscape(table),
		key:        cfg.ServiceRoleKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ Store = (*RESTStore)(nil)

// Get implements Store.
func (s *RESTStore) Get(ctx context.Context, userID string) *Profile {
	query := url.Values{
		"id":     {"eq." + userID},
		"select": {"*"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		logging.Error(subsystem, err, "Failed to build profile request")
		return nil
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logging.Error(subsystem, err, "Failed to fetch profile for %s", userID)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		logging.Error(subsystem, err, "Failed to read profile for %s", userID)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		logging.Warn(subsystem, "Profile lookup for %s failed with status %d", userID, resp.StatusCode)
		return nil
	}

	var rows []Profile
	if err := json.Unmarshal(body, &rows); err != nil {
		logging.Error(subsystem, err, "Failed to decode profile for %s", userID)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	return normalize(&rows[0])
}

type insertRow struct {
	ID              string         `json:"id"`
	Email           string         `json:"email"`
	FavoritePokemon []string       `json:"favorite_pokemon"`
	BattleTeams     map[string]any `json:"battle_teams"`
	UsageStats      map[string]any `json:"usage_stats"`
}

// Create implements Store.
func (s *RESTStore) Create(ctx context.Context, userID, email string) bool {
	payload, err := json.Marshal(insertRow{
		ID:              userID,
		Email:           email,
		FavoritePokemon: []string{},
		BattleTeams:     map[string]any{},
		UsageStats:      map[string]any{},
	})
	if err != nil {
		logging.Error(subsystem, err, "Failed to encode profile for %s", userID)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		logging.Error(subsystem, err, "Failed to build profile insert")
		return false
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logging.Error(subsystem, err, "Failed to create profile for %s", userID)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		logging.Error(subsystem, fmt.Errorf("status %d", resp.StatusCode), "Failed to create profile for %s", userID)
		return false
	}

	logging.Info(subsystem, "Created profile for %s", userID)
	return true
}

func (s *RESTStore) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")
}
