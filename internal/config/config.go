package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the binaries read from the environment.
type Config struct {
	Port        string
	StoreDriver string // "couchbase" or "memory"

	CouchbaseURL      string
	CouchbaseUsername string
	CouchbasePassword string
	CouchbaseBucket   string

	ElasticsearchURL string
	SeedCount        int
}

// Load reads a .env file when present and resolves every setting with its
// default.
func Load() Config {
	godotenv.Load()

	return Config{
		Port:              getEnv("PORT", "5000"),
		StoreDriver:       getEnv("STORE_DRIVER", "couchbase"),
		CouchbaseURL:      getEnv("COUCHBASE_URL", "couchbase://healthdesk-db"),
		CouchbaseUsername: getEnv("COUCHBASE_USERNAME", "healthdesk_user"),
		CouchbasePassword: getEnv("COUCHBASE_PASSWORD", "password"),
		CouchbaseBucket:   getEnv("COUCHBASE_BUCKET", "healthcare"),
		ElasticsearchURL:  os.Getenv("ELASTICSEARCH_URL"),
		SeedCount:         getEnvInt("SEED_COUNT", 50),
	}
}

// getEnv retrieves environment variable with fallback default
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
