package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/poke-comb/app/cfg"
	"github.com/lysyi3m/poke-comb/app/database"
	"github.com/lysyi3m/poke-comb/app/pokeapi"
)

const (
	defaultPerPage = 20
	maxSearchLimit = 50

	// Favoritable id range matches the upstream catalog size
	minPokemonID = 1
	maxPokemonID = 1328
)

func NewHandler(catalog CatalogClient, favorites database.FavoriteRepository) *Handler {
	return &Handler{
		catalog:   catalog,
		favorites: favorites,
	}
}

// ListPokemons serves the paginated catalog with optional substring search
// and type filter. Search results are not paginated upstream, so they report
// current_page 1 and carry an is_search marker.
func (h *Handler) ListPokemons(c *gin.Context) {
	page := intQuery(c, "page", 1)
	perPage := intQuery(c, "per_page", defaultPerPage)
	search := c.Query("search")
	pokemonType := c.Query("type")

	if search != "" {
		limit := min(perPage, maxSearchLimit)
		pokemons := filterByType(h.catalog.SearchByName(c.Request.Context(), search, limit), pokemonType)

		respondSuccess(c, http.StatusOK, "Pokemons retrieved successfully", gin.H{
			"data":         pokemons,
			"total":        len(pokemons),
			"current_page": 1,
			"per_page":     perPage,
			"is_search":    true,
		})
		return
	}

	result := h.catalog.GetList(c.Request.Context(), page, perPage)
	pokemons := filterByType(result.Pokemons, pokemonType)

	// Type filtering applies to the fetched page only; total and last_page
	// stay upstream-derived, so they may overcount relative to the page.
	respondSuccess(c, http.StatusOK, "Pokemons retrieved successfully", gin.H{
		"data":         pokemons,
		"total":        result.Count,
		"current_page": page,
		"per_page":     perPage,
		"last_page":    (result.Count + perPage - 1) / perPage,
	})
}

// GetPokemon serves one record by numeric id or name.
func (h *Handler) GetPokemon(c *gin.Context) {
	pokemon, ok := h.catalog.GetDetail(c.Request.Context(), c.Param("pokemon"))
	if !ok {
		respondError(c, http.StatusNotFound, "Pokemon not found")
		return
	}

	respondSuccess(c, http.StatusOK, "Pokemon retrieved successfully", pokemon)
}

func (h *Handler) AddFavorite(c *gin.Context) {
	pokemonID, validationErrors := pokemonIDParam(c)
	if validationErrors != nil {
		respondValidationError(c, http.StatusUnprocessableEntity, "Validation failed", validationErrors)
		return
	}

	exists, err := h.favorites.Exists(c.Request.Context(), pokemonID)
	if err != nil {
		slog.Error("Database error", "operation", "check_favorite", "pokemon_id", pokemonID, "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to add to favorites: "+err.Error())
		return
	}
	if exists {
		respondError(c, http.StatusConflict, "Pokemon is already in favorites")
		return
	}

	pokemon, ok := h.catalog.GetDetail(c.Request.Context(), strconv.Itoa(pokemonID))
	if !ok {
		respondError(c, http.StatusNotFound, "Pokemon not found")
		return
	}

	if _, err := h.favorites.Upsert(c.Request.Context(), *pokemon); err != nil {
		slog.Error("Database error", "operation", "add_favorite", "pokemon_id", pokemonID, "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to add to favorites: "+err.Error())
		return
	}

	respondSuccess(c, http.StatusCreated, "Pokemon added to favorites successfully", pokemon)
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	pokemonID, validationErrors := pokemonIDParam(c)
	if validationErrors != nil {
		respondValidationError(c, http.StatusUnprocessableEntity, "Validation failed", validationErrors)
		return
	}

	removed, err := h.favorites.Remove(c.Request.Context(), pokemonID)
	if err != nil {
		slog.Error("Database error", "operation", "remove_favorite", "pokemon_id", pokemonID, "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to remove from favorites: "+err.Error())
		return
	}
	if !removed {
		respondError(c, http.StatusNotFound, "Pokemon not found in favorites")
		return
	}

	respondSuccess(c, http.StatusOK, "Pokemon removed from favorites successfully", nil)
}

// ListFavorites serves the favorites subset, optionally filtered by an
// abilities list (OR semantics) and a case-insensitive name search.
func (h *Handler) ListFavorites(c *gin.Context) {
	search := c.Query("search")
	abilities := splitAbilities(c.Query("abilities"))

	var favorites []pokeapi.Pokemon
	var err error
	if len(abilities) > 0 {
		favorites, err = h.favorites.FilterByAbilities(c.Request.Context(), abilities)
	} else {
		favorites, err = h.favorites.GetAll(c.Request.Context())
	}
	if err != nil {
		slog.Error("Database error", "operation", "list_favorites", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to retrieve favorites: "+err.Error())
		return
	}

	if search != "" {
		needle := strings.ToLower(search)
		matched := make([]pokeapi.Pokemon, 0, len(favorites))
		for _, pokemon := range favorites {
			if strings.Contains(strings.ToLower(pokemon.Name), needle) {
				matched = append(matched, pokemon)
			}
		}
		favorites = matched
	}

	if favorites == nil {
		favorites = []pokeapi.Pokemon{}
	}
	respondSuccess(c, http.StatusOK, "Favorites retrieved successfully", favorites)
}

type abilityEntry struct {
	Name string `json:"name"`
}

// GetFavoriteAbilities serves the deduplicated union of every favorite's
// abilities, sorted ascending.
func (h *Handler) GetFavoriteAbilities(c *gin.Context) {
	favorites, err := h.favorites.GetAll(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "favorite_abilities", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to retrieve abilities: "+err.Error())
		return
	}

	seen := make(map[string]bool)
	for _, pokemon := range favorites {
		for _, ability := range pokemon.Abilities {
			if ability != "" {
				seen[ability] = true
			}
		}
	}

	abilities := make([]abilityEntry, 0, len(seen))
	for name := range seen {
		abilities = append(abilities, abilityEntry{Name: name})
	}
	sort.Slice(abilities, func(i, j int) bool {
		return abilities[i].Name < abilities[j].Name
	})

	respondSuccess(c, http.StatusOK, "Favorite abilities retrieved successfully", abilities)
}

func (h *Handler) GetPokemonsByAbility(c *gin.Context) {
	ability := c.Param("ability")

	favorites, err := h.favorites.FilterByAbilities(c.Request.Context(), []string{ability})
	if err != nil {
		slog.Error("Database error", "operation", "pokemons_by_ability", "ability", ability, "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to retrieve pokemons by ability: "+err.Error())
		return
	}

	if favorites == nil {
		favorites = []pokeapi.Pokemon{}
	}
	respondSuccess(c, http.StatusOK,
		fmt.Sprintf("Pokemons with ability '%s' retrieved successfully", ability), favorites)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
	}

	if favorites, err := h.favorites.GetAll(c.Request.Context()); err == nil {
		health["favorites"] = len(favorites)
	}

	c.JSON(http.StatusOK, health)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

// pokemonIDParam validates the path token as an integer within the
// favoritable range, before any persistence or upstream call.
func pokemonIDParam(c *gin.Context) (int, map[string][]string) {
	raw := c.Param("pokemon")

	pokemonID, err := strconv.Atoi(raw)
	if err != nil {
		return 0, map[string][]string{"pokemon_id": {"Pokemon ID must be an integer"}}
	}
	if pokemonID < minPokemonID {
		return 0, map[string][]string{"pokemon_id": {"Pokemon ID must be at least 1"}}
	}
	if pokemonID > maxPokemonID {
		return 0, map[string][]string{"pokemon_id": {"Pokemon ID must not exceed 1328"}}
	}
	return pokemonID, nil
}

func filterByType(pokemons []*pokeapi.Pokemon, pokemonType string) []*pokeapi.Pokemon {
	if pokemonType == "" {
		if pokemons == nil {
			return []*pokeapi.Pokemon{}
		}
		return pokemons
	}

	filtered := make([]*pokeapi.Pokemon, 0, len(pokemons))
	for _, pokemon := range pokemons {
		if pokemon.HasType(pokemonType) {
			filtered = append(filtered, pokemon)
		}
	}
	return filtered
}

func splitAbilities(raw string) []string {
	if raw == "" {
		return nil
	}

	abilities := make([]string, 0)
	for _, ability := range strings.Split(raw, ",") {
		if ability = strings.TrimSpace(ability); ability != "" {
			abilities = append(abilities, ability)
		}
	}
	return abilities
}
