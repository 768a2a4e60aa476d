package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers.
const (
	StoreDriverFile     = "file"
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"question-bank"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:3002"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Store     Store
	Postgres  Postgres
	Redis     Redis
	Security  Security
	Creator   Creator
	Dashboard Dashboard
	Sources   Sources
	CORS      CORS
}

// Store selects and locates the question collection.
type Store struct {
	Driver string `env:"STORE_DRIVER" envDefault:"file"`
	Path   string `env:"STORE_PATH" envDefault:"data/questions.json"`
}

// Postgres captures connection info for the SQL backend (STORE_DRIVER=postgres).
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:""`
	Password string `env:"PG_PASSWORD" envDefault:""`
	Database string `env:"PG_DATABASE" envDefault:""`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// Redis holds cache + event channel configuration. An empty Addr disables both.
type Redis struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:""`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize int           `env:"REDIS_POOL_SIZE" envDefault:"20"`
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"5m"`
	Channel  string        `env:"REDIS_EVENTS_CHANNEL" envDefault:"qb:events"`
}

// Security stores secrets for admin auth. An empty JWTSecret leaves writes open.
type Security struct {
	JWTSecret         string        `env:"JWT_SECRET" envDefault:""`
	TokenTTL          time.Duration `env:"JWT_TTL" envDefault:"1h"`
	AdminUsername     string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH" envDefault:""`
}

// Creator configures the authoring endpoints.
type Creator struct {
	TaxonomyFile string `env:"TAXONOMY_FILE" envDefault:""`
	DraftsPath   string `env:"DRAFTS_PATH" envDefault:""`
}

// Dashboard tunes the analytics endpoints.
type Dashboard struct {
	RecentLimit int `env:"RECENT_LIMIT" envDefault:"10"`
}

// Sources configures the upstream question providers used by qbankctl seed.
type Sources struct {
	OpenTDBURL     string        `env:"OPENTDB_URL" envDefault:"https://opentdb.com"`
	TriviaAPIURL   string        `env:"TRIVIA_API_URL" envDefault:"https://the-trivia-api.com/v2"`
	TriviaAPIKey   string        `env:"TRIVIA_API_KEY" envDefault:""`
	AIGeneratorURL string        `env:"AI_GENERATOR_URL" envDefault:""`
	AIGeneratorKey string        `env:"AI_GENERATOR_KEY" envDefault:""`
	Timeout        time.Duration `env:"SOURCES_TIMEOUT" envDefault:"10s"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5173"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the env tags cannot express.
func (c *App) Validate() error {
	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH must be set for the file driver")
		}
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.Postgres.User == "" || c.Postgres.Database == "" {
			return fmt.Errorf("PG_USER and PG_DATABASE must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Security.JWTSecret != "" && c.Security.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH must be configured when JWT_SECRET is set")
	}
	return nil
}

// DSN renders the libpq-style connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// PoolDSN is DSN plus pgxpool sizing.
func (p Postgres) PoolDSN() string {
	return fmt.Sprintf("%s pool_max_conns=%d", p.DSN(), p.MaxConns)
}
