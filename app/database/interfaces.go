package database

import (
	"context"

	"github.com/lysyi3m/poke-comb/app/pokeapi"
)

// FavoriteRepository abstracts favorites persistence. Two implementations
// exist, relational (SQLite) and document-store (Redis), selected at startup
// via the storage-backend setting.
type FavoriteRepository interface {
	// GetAll returns favorited records, most recently favorited first.
	GetAll(ctx context.Context) ([]pokeapi.Pokemon, error)

	// Upsert stores the record under its pokemon id, replacing name and data
	// of an existing favorite while preserving its identity and created_at.
	Upsert(ctx context.Context, pokemon pokeapi.Pokemon) (*Favorite, error)

	// Remove deletes the favorite and reports whether it existed.
	Remove(ctx context.Context, pokemonID int) (bool, error)

	Exists(ctx context.Context, pokemonID int) (bool, error)

	// FilterByAbilities returns favorites whose ability list intersects the
	// given set (OR semantics), in stable id-ascending order.
	FilterByAbilities(ctx context.Context, abilities []string) ([]pokeapi.Pokemon, error)
}

func hasAnyAbility(pokemon pokeapi.Pokemon, abilities []string) bool {
	for _, want := range abilities {
		for _, have := range pokemon.Abilities {
			if want == have {
				return true
			}
		}
	}
	return false
}
