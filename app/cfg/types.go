package cfg

type Cfg struct {
	// Storage configuration
	DBPath         string
	StorageBackend string
	CacheBackend   string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	// Upstream configuration
	PokeAPIURL  string
	HTTPTimeout int

	// Application configuration
	Port string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
