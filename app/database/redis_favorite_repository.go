package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lysyi3m/poke-comb/app/pokeapi"
)

const favoriteKeyPrefix = "favorite:"

var _ FavoriteRepository = (*RedisFavoriteRepository)(nil)

// favoriteDocument is the persisted shape of one favorite: the document-store
// counterpart of a favorite_pokemons row.
type favoriteDocument struct {
	PokemonID   int             `json:"pokemon_id"`
	PokemonName string          `json:"pokemon_name"`
	PokemonData pokeapi.Pokemon `json:"pokemon_data"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RedisFavoriteRepository persists favorites as JSON documents, one per
// pokemon id. The client is shared and owned by the caller.
type RedisFavoriteRepository struct {
	client *redis.Client
}

func NewRedisFavoriteRepository(client *redis.Client) *RedisFavoriteRepository {
	return &RedisFavoriteRepository{client: client}
}

func (r *RedisFavoriteRepository) GetAll(ctx context.Context) ([]pokeapi.Pokemon, error) {
	docs, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	// Most recently favorited first
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].PokemonID > docs[j].PokemonID
	})

	pokemons := make([]pokeapi.Pokemon, 0, len(docs))
	for _, doc := range docs {
		pokemons = append(pokemons, doc.PokemonData)
	}
	return pokemons, nil
}

func (r *RedisFavoriteRepository) Upsert(ctx context.Context, pokemon pokeapi.Pokemon) (*Favorite, error) {
	key := favoriteKey(pokemon.ID)
	now := time.Now().UTC()

	doc := favoriteDocument{
		PokemonID:   pokemon.ID,
		PokemonName: pokemon.Name,
		PokemonData: pokemon,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Replacing an existing favorite keeps its created_at
	existing, err := r.client.Get(ctx, key).Bytes()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get favorite %d: %w", pokemon.ID, err)
	}
	if err == nil {
		var current favoriteDocument
		if jsonErr := json.Unmarshal(existing, &current); jsonErr == nil {
			doc.CreatedAt = current.CreatedAt
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal favorite %d: %w", pokemon.ID, err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to set favorite %d: %w", pokemon.ID, err)
	}

	return &Favorite{
		PokemonID:   doc.PokemonID,
		PokemonName: doc.PokemonName,
		PokemonData: doc.PokemonData,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func (r *RedisFavoriteRepository) Remove(ctx context.Context, pokemonID int) (bool, error) {
	count, err := r.client.Del(ctx, favoriteKey(pokemonID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite %d: %w", pokemonID, err)
	}
	return count > 0, nil
}

func (r *RedisFavoriteRepository) Exists(ctx context.Context, pokemonID int) (bool, error) {
	count, err := r.client.Exists(ctx, favoriteKey(pokemonID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check favorite %d: %w", pokemonID, err)
	}
	return count > 0, nil
}

func (r *RedisFavoriteRepository) FilterByAbilities(ctx context.Context, abilities []string) ([]pokeapi.Pokemon, error) {
	docs, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].PokemonID < docs[j].PokemonID
	})

	matched := make([]pokeapi.Pokemon, 0, len(docs))
	for _, doc := range docs {
		if hasAnyAbility(doc.PokemonData, abilities) {
			matched = append(matched, doc.PokemonData)
		}
	}
	return matched, nil
}

func (r *RedisFavoriteRepository) loadAll(ctx context.Context) ([]favoriteDocument, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, favoriteKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan favorites: %w", err)
	}

	if len(keys) == 0 {
		return nil, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	docs := make([]favoriteDocument, 0, len(values))
	for i, value := range values {
		// Keys deleted between SCAN and MGET come back nil
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var doc favoriteDocument
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal favorite %s: %w", keys[i], err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func favoriteKey(pokemonID int) string {
	return favoriteKeyPrefix + strconv.Itoa(pokemonID)
}
