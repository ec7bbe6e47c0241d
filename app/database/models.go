package database

import (
	"time"

	"github.com/lysyi3m/poke-comb/app/pokeapi"
)

// Favorite represents one favorited pokemon. PokemonData holds the full
// normalized record captured at the time of favoriting.
type Favorite struct {
	ID          int64
	PokemonID   int
	PokemonName string
	PokemonData pokeapi.Pokemon
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
