package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/poke-comb/app/cfg"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	pokemons := r.Group("/api/pokemons")
	{
		pokemons.GET("", handler.ListPokemons)
		pokemons.GET("/favorites", handler.ListFavorites)
		pokemons.GET("/favorites/abilities", handler.GetFavoriteAbilities)
		pokemons.GET("/by-ability/:ability", handler.GetPokemonsByAbility)
		pokemons.GET("/:pokemon", handler.GetPokemon)
		pokemons.POST("/:pokemon/favorite", handler.AddFavorite)
		pokemons.DELETE("/:pokemon/favorite", handler.RemoveFavorite)
	}

	r.GET("/health", handler.GetHealth)

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Poke Comb",
			"version":     cfg.GetVersion(),
			"description": "PokeAPI proxy with pagination, search, type filtering, and persisted favorites",
			"endpoints": map[string]string{
				"pokemons":           "/api/pokemons?page=&per_page=&search=&type=",
				"pokemon":            "/api/pokemons/<id-or-name>",
				"favorites":          "/api/pokemons/favorites?search=&abilities=",
				"favorite_abilities": "/api/pokemons/favorites/abilities",
				"by_ability":         "/api/pokemons/by-ability/<ability>",
				"add_favorite":       "/api/pokemons/<id>/favorite (POST)",
				"remove_favorite":    "/api/pokemons/<id>/favorite (DELETE)",
				"health":             "/health",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
