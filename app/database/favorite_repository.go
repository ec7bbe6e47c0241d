package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lysyi3m/poke-comb/app/pokeapi"
)

var _ FavoriteRepository = (*SQLFavoriteRepository)(nil)

// SQLFavoriteRepository persists favorites in the favorite_pokemons table,
// with the normalized record stored as a JSON text column.
type SQLFavoriteRepository struct {
	db *DB
}

func NewSQLFavoriteRepository(db *DB) *SQLFavoriteRepository {
	return &SQLFavoriteRepository{db: db}
}

func (r *SQLFavoriteRepository) GetAll(ctx context.Context) ([]pokeapi.Pokemon, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pokemon_data
		FROM favorite_pokemons
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	defer rows.Close()

	return scanPokemonData(rows)
}

func (r *SQLFavoriteRepository) Upsert(ctx context.Context, pokemon pokeapi.Pokemon) (*Favorite, error) {
	data, err := json.Marshal(pokemon)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pokemon data: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO favorite_pokemons (pokemon_id, pokemon_name, pokemon_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (pokemon_id) DO UPDATE SET
			pokemon_name = excluded.pokemon_name,
			pokemon_data = excluded.pokemon_data,
			updated_at = excluded.updated_at
	`, pokemon.ID, pokemon.Name, string(data), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert favorite: %w", err)
	}

	return r.getByPokemonID(ctx, pokemon.ID)
}

func (r *SQLFavoriteRepository) Remove(ctx context.Context, pokemonID int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM favorite_pokemons WHERE pokemon_id = ?", pokemonID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLFavoriteRepository) Exists(ctx context.Context, pokemonID int) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM favorite_pokemons WHERE pokemon_id = ? LIMIT 1", pokemonID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return true, nil
}

func (r *SQLFavoriteRepository) FilterByAbilities(ctx context.Context, abilities []string) ([]pokeapi.Pokemon, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pokemon_data
		FROM favorite_pokemons
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	defer rows.Close()

	all, err := scanPokemonData(rows)
	if err != nil {
		return nil, err
	}

	matched := make([]pokeapi.Pokemon, 0, len(all))
	for _, pokemon := range all {
		if hasAnyAbility(pokemon, abilities) {
			matched = append(matched, pokemon)
		}
	}
	return matched, nil
}

func (r *SQLFavoriteRepository) getByPokemonID(ctx context.Context, pokemonID int) (*Favorite, error) {
	var favorite Favorite
	var data string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, pokemon_id, pokemon_name, pokemon_data, created_at, updated_at
		FROM favorite_pokemons
		WHERE pokemon_id = ?
	`, pokemonID).Scan(&favorite.ID, &favorite.PokemonID, &favorite.PokemonName,
		&data, &favorite.CreatedAt, &favorite.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorite: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &favorite.PokemonData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pokemon data: %w", err)
	}
	return &favorite, nil
}

func scanPokemonData(rows *sql.Rows) ([]pokeapi.Pokemon, error) {
	pokemons := make([]pokeapi.Pokemon, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}

		var pokemon pokeapi.Pokemon
		if err := json.Unmarshal([]byte(data), &pokemon); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pokemon data: %w", err)
		}
		pokemons = append(pokemons, pokemon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorite rows: %w", err)
	}
	return pokemons, nil
}
