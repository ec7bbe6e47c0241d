package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/lysyi3m/poke-comb/app/database"
	"github.com/lysyi3m/poke-comb/app/pokeapi"
)

type fakeCatalog struct {
	pokemons map[string]*pokeapi.Pokemon
	listed   *pokeapi.ListResult
	searched []*pokeapi.Pokemon
}

func (f *fakeCatalog) GetDetail(_ context.Context, idOrName string) (*pokeapi.Pokemon, bool) {
	pokemon, ok := f.pokemons[idOrName]
	return pokemon, ok
}

func (f *fakeCatalog) GetList(_ context.Context, _, _ int) *pokeapi.ListResult {
	if f.listed == nil {
		return &pokeapi.ListResult{Pokemons: []*pokeapi.Pokemon{}}
	}
	return f.listed
}

func (f *fakeCatalog) SearchByName(_ context.Context, _ string, _ int) []*pokeapi.Pokemon {
	return f.searched
}

type fakeRepo struct {
	favorites map[int]pokeapi.Pokemon
	order     []int
	failing   bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{favorites: make(map[int]pokeapi.Pokemon)}
}

func (f *fakeRepo) GetAll(_ context.Context) ([]pokeapi.Pokemon, error) {
	if f.failing {
		return nil, fmt.Errorf("storage unavailable")
	}
	all := make([]pokeapi.Pokemon, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		all = append(all, f.favorites[f.order[i]])
	}
	return all, nil
}

func (f *fakeRepo) Upsert(_ context.Context, pokemon pokeapi.Pokemon) (*database.Favorite, error) {
	if f.failing {
		return nil, fmt.Errorf("storage unavailable")
	}
	if _, ok := f.favorites[pokemon.ID]; !ok {
		f.order = append(f.order, pokemon.ID)
	}
	f.favorites[pokemon.ID] = pokemon
	return &database.Favorite{PokemonID: pokemon.ID, PokemonName: pokemon.Name, PokemonData: pokemon}, nil
}

func (f *fakeRepo) Remove(_ context.Context, pokemonID int) (bool, error) {
	if f.failing {
		return false, fmt.Errorf("storage unavailable")
	}
	if _, ok := f.favorites[pokemonID]; !ok {
		return false, nil
	}
	delete(f.favorites, pokemonID)
	for i, id := range f.order {
		if id == pokemonID {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (f *fakeRepo) Exists(_ context.Context, pokemonID int) (bool, error) {
	if f.failing {
		return false, fmt.Errorf("storage unavailable")
	}
	_, ok := f.favorites[pokemonID]
	return ok, nil
}

func (f *fakeRepo) FilterByAbilities(_ context.Context, abilities []string) ([]pokeapi.Pokemon, error) {
	if f.failing {
		return nil, fmt.Errorf("storage unavailable")
	}
	matched := make([]pokeapi.Pokemon, 0)
	for _, id := range f.order {
		pokemon := f.favorites[id]
		for _, want := range abilities {
			found := false
			for _, have := range pokemon.Abilities {
				if want == have {
					matched = append(matched, pokemon)
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}
	return matched, nil
}

func newPokemon(id int, name string, types []string, abilities ...string) *pokeapi.Pokemon {
	return &pokeapi.Pokemon{
		ID:            id,
		Name:          name,
		PokedexNumber: id,
		Types:         types,
		Abilities:     abilities,
	}
}

func serve(catalog CatalogClient, repo *fakeRepo, method, target string) *httptest.ResponseRecorder {
	server := NewServer(NewHandler(catalog, repo))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	server.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var envelope Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return envelope
}

func TestListPokemonsReportsUpstreamTotal(t *testing.T) {
	catalog := &fakeCatalog{
		listed: &pokeapi.ListResult{
			Pokemons: []*pokeapi.Pokemon{
				newPokemon(25, "pikachu", []string{"electric"}, "static"),
				newPokemon(1, "bulbasaur", []string{"grass", "poison"}, "overgrow"),
			},
			Count: 1302,
		},
	}

	w := serve(catalog, newFakeRepo(), "GET", "/api/pokemons?page=2&per_page=20")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	envelope := decodeEnvelope(t, w)
	if !envelope.Success {
		t.Error("Expected success envelope")
	}

	data := envelope.Data.(map[string]interface{})
	if data["total"].(float64) != 1302 {
		t.Errorf("Expected upstream total 1302, got %v", data["total"])
	}
	if data["current_page"].(float64) != 2 {
		t.Errorf("Expected current_page 2, got %v", data["current_page"])
	}
	if data["last_page"].(float64) != 66 {
		t.Errorf("Expected last_page 66, got %v", data["last_page"])
	}
	if _, ok := data["is_search"]; ok {
		t.Error("Expected no is_search marker on a list response")
	}
}

func TestListPokemonsTypeFilterLeavesTotalsUnchanged(t *testing.T) {
	catalog := &fakeCatalog{
		listed: &pokeapi.ListResult{
			Pokemons: []*pokeapi.Pokemon{
				newPokemon(25, "pikachu", []string{"electric"}, "static"),
				newPokemon(1, "bulbasaur", []string{"grass", "poison"}, "overgrow"),
			},
			Count: 1302,
		},
	}

	w := serve(catalog, newFakeRepo(), "GET", "/api/pokemons?type=electric")
	envelope := decodeEnvelope(t, w)

	data := envelope.Data.(map[string]interface{})
	items := data["data"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 pokemon after type filter, got %d", len(items))
	}
	if data["total"].(float64) != 1302 {
		t.Errorf("Expected total to stay upstream-derived, got %v", data["total"])
	}
}

func TestListPokemonsSearchMode(t *testing.T) {
	catalog := &fakeCatalog{
		searched: []*pokeapi.Pokemon{
			newPokemon(25, "pikachu", []string{"electric"}, "static"),
			newPokemon(172, "pichu", []string{"electric"}, "static"),
		},
	}

	w := serve(catalog, newFakeRepo(), "GET", "/api/pokemons?search=chu&page=3")
	envelope := decodeEnvelope(t, w)

	data := envelope.Data.(map[string]interface{})
	if data["is_search"] != true {
		t.Error("Expected is_search marker on a search response")
	}
	if data["current_page"].(float64) != 1 {
		t.Errorf("Expected search responses to report page 1, got %v", data["current_page"])
	}
	if data["total"].(float64) != 2 {
		t.Errorf("Expected total to count search matches, got %v", data["total"])
	}
	if _, ok := data["last_page"]; ok {
		t.Error("Expected no last_page on a search response")
	}
}

func TestGetPokemon(t *testing.T) {
	catalog := &fakeCatalog{
		pokemons: map[string]*pokeapi.Pokemon{
			"pikachu": newPokemon(25, "pikachu", []string{"electric"}, "static"),
		},
	}

	w := serve(catalog, newFakeRepo(), "GET", "/api/pokemons/pikachu")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = serve(catalog, newFakeRepo(), "GET", "/api/pokemons/missingno")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	envelope := decodeEnvelope(t, w)
	if envelope.Success || envelope.Message != "Pokemon not found" {
		t.Errorf("Unexpected error envelope: %+v", envelope)
	}
}

func TestAddFavorite(t *testing.T) {
	catalog := &fakeCatalog{
		pokemons: map[string]*pokeapi.Pokemon{
			"25": newPokemon(25, "pikachu", []string{"electric"}, "static"),
		},
	}
	repo := newFakeRepo()

	w := serve(catalog, repo, "POST", "/api/pokemons/25/favorite")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	envelope := decodeEnvelope(t, w)
	if envelope.Message != "Pokemon added to favorites successfully" {
		t.Errorf("Unexpected message: %q", envelope.Message)
	}
	if _, ok := repo.favorites[25]; !ok {
		t.Error("Expected favorite to be persisted")
	}
}

func TestAddFavoriteConflict(t *testing.T) {
	catalog := &fakeCatalog{
		pokemons: map[string]*pokeapi.Pokemon{
			"25": newPokemon(25, "pikachu", []string{"electric"}, "static"),
		},
	}
	repo := newFakeRepo()
	repo.favorites[25] = *newPokemon(25, "pikachu", []string{"electric"}, "static")
	repo.order = []int{25}

	w := serve(catalog, repo, "POST", "/api/pokemons/25/favorite")
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", w.Code)
	}
	envelope := decodeEnvelope(t, w)
	if envelope.Message != "Pokemon is already in favorites" {
		t.Errorf("Unexpected message: %q", envelope.Message)
	}
}

func TestAddFavoriteUnknownUpstream(t *testing.T) {
	w := serve(&fakeCatalog{}, newFakeRepo(), "POST", "/api/pokemons/777/favorite")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
}

func TestAddFavoriteValidation(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		message string
	}{
		{"non-integer", "/api/pokemons/pikachu/favorite", "Pokemon ID must be an integer"},
		{"below range", "/api/pokemons/0/favorite", "Pokemon ID must be at least 1"},
		{"above range", "/api/pokemons/1329/favorite", "Pokemon ID must not exceed 1328"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			w := serve(&fakeCatalog{}, repo, "POST", tt.target)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("Expected 422, got %d", w.Code)
			}

			envelope := decodeEnvelope(t, w)
			errors := envelope.Errors.(map[string]interface{})
			messages := errors["pokemon_id"].([]interface{})
			if messages[0] != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, messages[0])
			}
			if len(repo.favorites) != 0 {
				t.Error("Expected no persistence on validation failure")
			}
		})
	}
}

func TestRemoveFavorite(t *testing.T) {
	repo := newFakeRepo()
	repo.favorites[25] = *newPokemon(25, "pikachu", []string{"electric"}, "static")
	repo.order = []int{25}

	w := serve(&fakeCatalog{}, repo, "DELETE", "/api/pokemons/25/favorite")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = serve(&fakeCatalog{}, repo, "DELETE", "/api/pokemons/25/favorite")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for a missing favorite, got %d", w.Code)
	}
	envelope := decodeEnvelope(t, w)
	if envelope.Message != "Pokemon not found in favorites" {
		t.Errorf("Unexpected message: %q", envelope.Message)
	}
}

func TestListFavoritesSearchAndAbilities(t *testing.T) {
	repo := newFakeRepo()
	seed := []*pokeapi.Pokemon{
		newPokemon(25, "pikachu", []string{"electric"}, "static", "lightning-rod"),
		newPokemon(1, "bulbasaur", []string{"grass"}, "overgrow"),
		newPokemon(172, "pichu", []string{"electric"}, "static"),
	}
	for _, pokemon := range seed {
		repo.favorites[pokemon.ID] = *pokemon
		repo.order = append(repo.order, pokemon.ID)
	}

	w := serve(&fakeCatalog{}, repo, "GET", "/api/pokemons/favorites")
	envelope := decodeEnvelope(t, w)
	items := envelope.Data.([]interface{})
	if len(items) != 3 {
		t.Fatalf("Expected 3 favorites, got %d", len(items))
	}

	w = serve(&fakeCatalog{}, repo, "GET", "/api/pokemons/favorites?abilities=static")
	envelope = decodeEnvelope(t, w)
	items = envelope.Data.([]interface{})
	if len(items) != 2 {
		t.Fatalf("Expected 2 favorites with static, got %d", len(items))
	}

	w = serve(&fakeCatalog{}, repo, "GET", "/api/pokemons/favorites?abilities=static&search=PIKA")
	envelope = decodeEnvelope(t, w)
	items = envelope.Data.([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 favorite matching search, got %d", len(items))
	}
	first := items[0].(map[string]interface{})
	if first["name"] != "pikachu" {
		t.Errorf("Expected pikachu, got %v", first["name"])
	}
}

func TestGetFavoriteAbilitiesUnionSorted(t *testing.T) {
	repo := newFakeRepo()
	seed := []*pokeapi.Pokemon{
		newPokemon(25, "pikachu", []string{"electric"}, "static", "lightning-rod"),
		newPokemon(1, "bulbasaur", []string{"grass"}, "overgrow", "chlorophyll"),
		newPokemon(4, "charmander", []string{"fire"}, "blaze"),
	}
	for _, pokemon := range seed {
		repo.favorites[pokemon.ID] = *pokemon
		repo.order = append(repo.order, pokemon.ID)
	}

	w := serve(&fakeCatalog{}, repo, "GET", "/api/pokemons/favorites/abilities")
	envelope := decodeEnvelope(t, w)

	items := envelope.Data.([]interface{})
	want := []string{"blaze", "chlorophyll", "lightning-rod", "overgrow", "static"}
	if len(items) != len(want) {
		t.Fatalf("Expected %d abilities, got %d", len(want), len(items))
	}
	for i, item := range items {
		name := item.(map[string]interface{})["name"]
		if name != want[i] {
			t.Errorf("Position %d: expected %q, got %v", i, want[i], name)
		}
	}
}

func TestGetPokemonsByAbility(t *testing.T) {
	repo := newFakeRepo()
	repo.favorites[25] = *newPokemon(25, "pikachu", []string{"electric"}, "static")
	repo.order = []int{25}

	w := serve(&fakeCatalog{}, repo, "GET", "/api/pokemons/by-ability/static")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	envelope := decodeEnvelope(t, w)
	if !strings.Contains(envelope.Message, "'static'") {
		t.Errorf("Expected ability named in message, got %q", envelope.Message)
	}
	items := envelope.Data.([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 pokemon, got %d", len(items))
	}
}

func TestRepositoryFailureMapsTo500(t *testing.T) {
	repo := newFakeRepo()
	repo.failing = true

	w := serve(&fakeCatalog{}, repo, "GET", "/api/pokemons/favorites")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	envelope := decodeEnvelope(t, w)
	if envelope.Success {
		t.Error("Expected failure envelope")
	}
	if !strings.Contains(envelope.Message, "storage unavailable") {
		t.Errorf("Expected failure message to carry the cause, got %q", envelope.Message)
	}
}

func TestValidationUsesNumericBound(t *testing.T) {
	id := strconv.Itoa(1328)
	catalog := &fakeCatalog{
		pokemons: map[string]*pokeapi.Pokemon{
			id: newPokemon(1328, "terapagos-stellar", []string{"normal"}, "tera-shift"),
		},
	}

	w := serve(catalog, newFakeRepo(), "POST", "/api/pokemons/"+id+"/favorite")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected the range bound itself to be favoritable, got %d", w.Code)
	}
}
