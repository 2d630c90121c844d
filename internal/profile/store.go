package profile

import (
	"context"
	"time"
)

// Profile is the enrichment record of one user.
type Profile struct {
	ID              string         `json:"id"`
	Email           string         `json:"email"`
	FavoritePokemon []string       `json:"favorite_pokemon"`
	BattleTeams     map[string]any `json:"battle_teams"`
	UsageStats      map[string]any `json:"usage_stats"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Store reads and lazily creates profiles.
type Store interface {
	// Get returns the profile of userID, or nil when it does not exist or
	// cannot be read.
	Get(ctx context.Context, userID string) *Profile

	// Create inserts an empty profile. Failures are logged and reported as
	// false.
	Create(ctx context.Context, userID, email string) bool
}

// GetOrCreate returns the profile of userID, creating an empty one first if
// none exists. It returns nil if the profile can neither be read nor created.
func GetOrCreate(ctx context.Context, store Store, userID, email string) *Profile {
	if p := store.Get(ctx, userID); p != nil {
		return p
	}
	if !store.Create(ctx, userID, email) {
		return nil
	}
	return store.Get(ctx, userID)
}

func normalize(p *Profile) *Profile {
	if p.FavoritePokemon == nil {
		p.FavoritePokemon = []string{}
	}
	if p.BattleTeams == nil {
		p.BattleTeams = map[string]any{}
	}
	if p.UsageStats == nil {
		p.UsageStats = map[string]any{}
	}
	return p
}
