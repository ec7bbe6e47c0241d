package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath         string `long:"db-path" env:"DB_PATH" default:"./data/poke-comb.db" description:"Path to the SQLite database file"`
	StorageBackend string `long:"storage-backend" env:"STORAGE_BACKEND" default:"sqlite" choice:"sqlite" choice:"redis" description:"Favorites storage backend"`
	CacheBackend   string `long:"cache-backend" env:"CACHE_BACKEND" default:"memory" choice:"memory" choice:"redis" description:"Upstream cache backend"`
	RedisAddr      string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address (host:port)"`
	RedisPassword  string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password (optional)"`
	RedisDB        int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`

	// Upstream configuration
	PokeAPIURL  string `long:"pokeapi-url" env:"POKEAPI_URL" default:"https://pokeapi.co/api/v2" description:"Base URL of the upstream PokeAPI"`
	HTTPTimeout int    `long:"http-timeout" env:"HTTP_TIMEOUT" default:"10" description:"Upstream HTTP request timeout in seconds"`

	// Application configuration
	Port string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Poke Comb/1.0" description:"User agent string for upstream HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:         raw.DBPath,
		StorageBackend: raw.StorageBackend,
		CacheBackend:   raw.CacheBackend,
		RedisAddr:      raw.RedisAddr,
		RedisPassword:  raw.RedisPassword,
		RedisDB:        raw.RedisDB,
		PokeAPIURL:     raw.PokeAPIURL,
		HTTPTimeout:    raw.HTTPTimeout,
		Port:           raw.Port,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
