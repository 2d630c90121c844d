// Package pokeapi fetches Pokémon and type data from the public PokéAPI and
// reshapes it into the compact records the MCP tools return.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public PokéAPI.
	DefaultBaseURL = "https://pokeapi.co/api/v2/"

	// DefaultTimeout bounds each request.
	DefaultTimeout = 15 * time.Second
)

// ErrNotFound is returned for unknown Pokémon or types.
var ErrNotFound = errors.New("not found")

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a PokéAPI client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a client. Zero config values select the defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stat is one base stat of a Pokémon.
type Stat struct {
	Name string `json:"name"`
	Base int    `json:"base"`
}

// Pokemon is the reshaped /pokemon/{name} resource.
type Pokemon struct {
	Name  string   `json:"name"`
	ID    int      `json:"id"`
	Types []string `json:"types"`
	Stats []Stat   `json:"stats"`
}

// Weakness lists the attacking types that are strong or weak against a type.
type Weakness struct {
	Name             string   `json:"name"`
	DoubleDamageFrom []string `json:"double_damage_from"`
	HalfDamageFrom   []string `json:"half_damage_from"`
	NoDamageFrom     []string `json:"no_damage_from"`
}

// Effectiveness lists how a type performs when attacking other types.
type Effectiveness struct {
	Name           string   `json:"name"`
	DoubleDamageTo []string `json:"double_damage_to"`
	HalfDamageTo   []string `json:"half_damage_to"`
	NoDamageTo     []string `json:"no_damage_to"`
}

// Type is the reshaped /type/{name} resource.
type Type struct {
	Name             string
	DoubleDamageFrom []string
	HalfDamageFrom   []string
	NoDamageFrom     []string
	DoubleDamageTo   []string
	HalfDamageTo     []string
	NoDamageTo       []string
}

// Weakness returns the defensive view of the type.
func (t *Type) Weakness() *Weakness {
	return &Weakness{
		Name:             t.Name,
		DoubleDamageFrom: t.DoubleDamageFrom,
		HalfDamageFrom:   t.HalfDamageFrom,
		NoDamageFrom:     t.NoDamageFrom,
	}
}

// Effectiveness returns the offensive view of the type.
func (t *Type) Effectiveness() *Effectiveness {
	return &Effectiveness{
		Name:           t.Name,
		DoubleDamageTo: t.DoubleDamageTo,
		HalfDamageTo:   t.HalfDamageTo,
		NoDamageTo:     t.NoDamageTo,
	}
}

type namedResource struct {
	Name string `json:"name"`
}

type pokemonResource struct {
	Name  string `json:"name"`
	ID    int    `json:"id"`
	Types []struct {
		Slot int           `json:"slot"`
		Type namedResource `json:"type"`
	} `json:"types"`
	Stats []struct {
		BaseStat int           `json:"base_stat"`
		Stat     namedResource `json:"stat"`
	} `json:"stats"`
}

type typeResource struct {
	Name            string `json:"name"`
	DamageRelations struct {
		DoubleDamageFrom []namedResource `json:"double_damage_from"`
		HalfDamageFrom   []namedResource `json:"half_damage_from"`
		NoDamageFrom     []namedResource `json:"no_damage_from"`
		DoubleDamageTo   []namedResource `json:"double_damage_to"`
		HalfDamageTo     []namedResource `json:"half_damage_to"`
		NoDamageTo       []namedResource `json:"no_damage_to"`
	} `json:"damage_relations"`
}

// FetchPokemon returns the Pokémon called name. Names are case insensitive.
func (c *Client) FetchPokemon(ctx context.Context, name string) (*Pokemon, error) {
	var res pokemonResource
	if err := c.get(ctx, "pokemon", name, &res); err != nil {
		return nil, err
	}

	p := &Pokemon{
		Name:  res.Name,
		ID:    res.ID,
		Types: make([]string, 0, len(res.Types)),
		Stats: make([]Stat, 0, len(res.Stats)),
	}
	for _, t := range res.Types {
		p.Types = append(p.Types, t.Type.Name)
	}
	for _, s := range res.Stats {
		p.Stats = append(p.Stats, Stat{Name: s.Stat.Name, Base: s.BaseStat})
	}
	return p, nil
}

// FetchType returns the damage relations of the type called name.
func (c *Client) FetchType(ctx context.Context, name string) (*Type, error) {
	var res typeResource
	if err := c.get(ctx, "type", name, &res); err != nil {
		return nil, err
	}

	rel := res.DamageRelations
	return &Type{
		Name:             res.Name,
		DoubleDamageFrom: names(rel.DoubleDamageFrom),
		HalfDamageFrom:   names(rel.HalfDamageFrom),
		NoDamageFrom:     names(rel.NoDamageFrom),
		DoubleDamageTo:   names(rel.DoubleDamageTo),
		HalfDamageTo:     names(rel.HalfDamageTo),
		NoDamageTo:       names(rel.NoDamageTo),
	}, nil
}

func names(resources []namedResource) []string {
	out := make([]string, 0, len(resources))
	for _, r := range resources {
		out = append(out, r.Name)
	}
	return out
}

func (c *Client) get(ctx context.Context, resource, name string, out any) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("%s name is required", resource)
	}

	endpoint := c.baseURL + resource + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %q: %w", resource, name, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s request failed with status %d", resource, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resource, err)
	}
	return nil
}
