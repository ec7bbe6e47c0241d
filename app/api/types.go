package api

import (
	"context"

	"github.com/lysyi3m/poke-comb/app/database"
	"github.com/lysyi3m/poke-comb/app/pokeapi"
)

// CatalogClient is the slice of the pokeapi client the handlers consume.
type CatalogClient interface {
	GetDetail(ctx context.Context, idOrName string) (*pokeapi.Pokemon, bool)
	GetList(ctx context.Context, page, limit int) *pokeapi.ListResult
	SearchByName(ctx context.Context, query string, limit int) []*pokeapi.Pokemon
}

var _ CatalogClient = (*pokeapi.Client)(nil)

type Handler struct {
	catalog   CatalogClient
	favorites database.FavoriteRepository
}
