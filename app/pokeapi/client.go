package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lysyi3m/poke-comb/app/cache"
)

const (
	DefaultBaseURL = "https://pokeapi.co/api/v2"

	cachePrefix = "pokeapi_"
	allNamesKey = cachePrefix + "all_pokemon_names"

	detailTTL   = time.Hour
	listTTL     = time.Hour
	allNamesTTL = 24 * time.Hour

	// One oversized page fetches the whole catalog for the name index;
	// the upstream catalog is well below this size.
	allNamesPageSize = 2000

	maxResponseSize = 5 << 20
)

// Client fetches catalog records from the upstream PokeAPI, normalizes them
// and caches the results. All operations degrade to absent/empty results on
// upstream failure; errors are logged, never returned to callers.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	store      cache.Store
	group      singleflight.Group
}

func NewClient(baseURL, userAgent string, httpClient *http.Client, store cache.Store) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
		store:      store,
	}
}

// GetDetail returns the normalized record for a numeric id or lowercase name.
// The identifier is used as given, so id and name lookups cache separately.
func (c *Client) GetDetail(ctx context.Context, idOrName string) (*Pokemon, bool) {
	key := cachePrefix + "detail_" + idOrName

	pokemon, err := cache.GetOrCompute(ctx, c.store, key, detailTTL, func(ctx context.Context) (*Pokemon, bool, error) {
		return c.fetchDetail(ctx, idOrName)
	})
	if err != nil || pokemon == nil {
		return nil, false
	}
	return pokemon, true
}

func (c *Client) fetchDetail(ctx context.Context, idOrName string) (*Pokemon, bool, error) {
	// Simultaneous misses on the same identifier collapse into one request.
	result, err, _ := c.group.Do("detail_"+idOrName, func() (interface{}, error) {
		body, err := c.get(ctx, "/pokemon/"+url.PathEscape(idOrName), nil)
		if err != nil {
			return nil, err
		}
		return parseDetail(body)
	})
	if err != nil {
		slog.Error("Upstream error fetching pokemon detail", "pokemon", idOrName, "error", err)
		return nil, false, nil
	}

	return result.(*Pokemon), true, nil
}

// GetList returns one page of the catalog with full records resolved. Pages
// are 1-based. Upstream provides no batch detail endpoint, so each summary is
// resolved through GetDetail; summaries whose detail fetch fails are dropped
// while Count keeps the upstream total.
func (c *Client) GetList(ctx context.Context, page, limit int) *ListResult {
	key := fmt.Sprintf("%slist_page_%d_limit_%d", cachePrefix, page, limit)

	result, err := cache.GetOrCompute(ctx, c.store, key, listTTL, func(ctx context.Context) (*ListResult, bool, error) {
		return c.fetchList(ctx, page, limit)
	})
	if err != nil || result == nil {
		return &ListResult{Pokemons: []*Pokemon{}}
	}
	return result
}

func (c *Client) fetchList(ctx context.Context, page, limit int) (*ListResult, bool, error) {
	empty := &ListResult{Pokemons: []*Pokemon{}}

	offset := (page - 1) * limit
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	body, err := c.get(ctx, "/pokemon", query)
	if err != nil {
		slog.Error("Upstream error fetching pokemon list", "page", page, "limit", limit, "error", err)
		return empty, false, nil
	}

	var raw pagePayload
	if err := json.Unmarshal(body, &raw); err != nil {
		slog.Error("Failed to parse pokemon list payload", "page", page, "error", err)
		return empty, false, nil
	}

	result := &ListResult{
		Pokemons: make([]*Pokemon, 0, len(raw.Results)),
		Count:    raw.Count,
		Next:     raw.Next,
		Previous: raw.Previous,
	}
	for _, summary := range raw.Results {
		pokemon, ok := c.GetDetail(ctx, summary.Name)
		if !ok {
			slog.Warn("Dropping pokemon with missing detail", "pokemon", summary.Name)
			continue
		}
		result.Pokemons = append(result.Pokemons, pokemon)
	}

	// An empty page is presumed a transient upstream failure; recompute it
	// on the next call instead of caching.
	return result, len(result.Pokemons) > 0, nil
}

// SearchByName matches the query as a case-insensitive substring against the
// full catalog name index, preserving catalog order and capping the result.
func (c *Client) SearchByName(ctx context.Context, query string, limit int) []*Pokemon {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}

	var matches []string
	for _, name := range c.allNames(ctx) {
		if len(matches) >= limit {
			break
		}
		if strings.Contains(name, query) {
			matches = append(matches, name)
		}
	}

	pokemons := make([]*Pokemon, 0, len(matches))
	for _, name := range matches {
		if pokemon, ok := c.GetDetail(ctx, name); ok {
			pokemons = append(pokemons, pokemon)
		}
	}
	return pokemons
}

func (c *Client) allNames(ctx context.Context) []string {
	names, err := cache.GetOrCompute(ctx, c.store, allNamesKey, allNamesTTL, func(ctx context.Context) ([]string, bool, error) {
		return c.fetchAllNames(ctx)
	})
	if err != nil {
		return nil
	}
	return names
}

func (c *Client) fetchAllNames(ctx context.Context) ([]string, bool, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(allNamesPageSize))
	query.Set("offset", "0")

	body, err := c.get(ctx, "/pokemon", query)
	if err != nil {
		slog.Error("Upstream error fetching pokemon name index", "error", err)
		return nil, false, nil
	}

	var raw pagePayload
	if err := json.Unmarshal(body, &raw); err != nil {
		slog.Error("Failed to parse pokemon name index payload", "error", err)
		return nil, false, nil
	}

	names := make([]string, 0, len(raw.Results))
	for _, summary := range raw.Results {
		names = append(names, summary.Name)
	}
	return names, len(names) > 0, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
