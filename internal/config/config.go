package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/levelgen/internal/database"
	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

// Config holds levelgen configuration for all commands.
type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Paths     PathsConfig     `yaml:"paths"`
	Database  DatabaseConfig  `yaml:"database"`
	Preview   PreviewConfig   `yaml:"preview"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GeneratorConfig holds the generation knobs shared by every level.
type GeneratorConfig struct {
	// Mode is "resilient" (retry with new seeds) or "fast_fail" (stop after 3
	// attempts and keep the failed level for inspection).
	Mode string `yaml:"mode"`

	// MaxAttempts bounds resilient retries.
	MaxAttempts int `yaml:"max_attempts"`

	// SeedOverride, when positive, replaces every level's own seed.
	SeedOverride int64 `yaml:"seed_override"`

	// CandidateRule is "intersect" or "union".
	CandidateRule string `yaml:"candidate_rule"`

	// AdjacencyCheck is "strict" or "legacy".
	AdjacencyCheck string `yaml:"adjacency_check"`

	// MaxWallNeighbors is the barrier count at which an interior cell is
	// considered boxed in.
	MaxWallNeighbors int `yaml:"max_wall_neighbors"`

	// RequireUnusedSpawn requires at least one unclaimed spawn point.
	RequireUnusedSpawn bool `yaml:"require_unused_spawn"`

	// RecordSteps keeps every collapse decision in the report.
	RecordSteps bool `yaml:"record_steps"`
}

// PathsConfig locates data files.
type PathsConfig struct {
	Levels     string `yaml:"levels"`
	Logging    string `yaml:"logging"`
	ExportsDir string `yaml:"exports_dir"`
}

// DatabaseConfig enables the report store.
type DatabaseConfig struct {
	Enabled         bool `yaml:"enabled"`
	database.Config `yaml:",inline"`
}

// PreviewConfig holds preview server settings.
type PreviewConfig struct {
	Address     string            `yaml:"address"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`

	// MaxAttempts caps the attempts of a single preview request.
	MaxAttempts int `yaml:"max_attempts"`

	// TrustProxyHeaders takes the client IP from X-Forwarded-For or
	// X-Real-IP. Enable only behind a reverse proxy that sets them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited (not recommended).
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum total concurrent connections to the server.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns a Config with the generator defaults and the
// report store disabled.
func DefaultConfig() *Config {
	pg := database.DefaultPostgresConfig()
	pg.User = "levelgen"
	pg.Database = "levelgen"

	return &Config{
		Generator: GeneratorConfig{
			Mode:             string(wfc.ModeResilient),
			MaxAttempts:      wfc.DefaultMaxAttempts,
			CandidateRule:    string(wfc.CandidateIntersect),
			AdjacencyCheck:   string(wfc.AdjacencyStrict),
			MaxWallNeighbors: wfc.DefaultMaxWallNeighbors,
		},
		Paths: PathsConfig{
			Levels:     "data/levels",
			Logging:    "data/logging.yaml",
			ExportsDir: "exports",
		},
		Database: DatabaseConfig{
			Config: database.Config{
				Driver:     string(database.DialectSQLite),
				SQLitePath: "data/levelgen.db",
				Postgres:   pg,
			},
		},
		Preview: PreviewConfig{
			Address: ":4080",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 3,
				MaxTotal: 100,
			},
			MaxAttempts: 10,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "levelgen",
		},
	}
}

// LoadConfig loads configuration from a YAML file over the defaults, then
// applies environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return config, err
		}
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	if err := config.applyEnvOverrides(); err != nil {
		return config, err
	}
	return config, nil
}

// applyEnvOverrides applies LEVELGEN_* environment variables
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("LEVELGEN_MODE"); v != "" {
		c.Generator.Mode = v
	}
	if v := os.Getenv("LEVELGEN_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid LEVELGEN_SEED %q: %w", v, err)
		}
		c.Generator.SeedOverride = seed
	}
	if v := os.Getenv("LEVELGEN_DB_DRIVER"); v != "" {
		c.Database.Enabled = true
		c.Database.Driver = v
	}
	if v := os.Getenv("LEVELGEN_DB_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LEVELGEN_PG_HOST"); v != "" {
		c.Database.Postgres.Host = v
	}
	if v := os.Getenv("LEVELGEN_PG_PASSWORD"); v != "" {
		c.Database.Postgres.Password = v
	}
	if v := os.Getenv("LEVELGEN_PREVIEW_ADDR"); v != "" {
		c.Preview.Address = v
	}
	if v := os.Getenv("LEVELGEN_TELEMETRY"); v != "" {
		c.Telemetry.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	return nil
}

// Options converts the generator section to wfc.Options, rejecting
// unknown mode, candidate rule or adjacency check names.
func (g GeneratorConfig) Options() (wfc.Options, error) {
	opts := wfc.DefaultOptions()

	mode, ok := wfc.ParseMode(g.Mode)
	if !ok {
		return opts, fmt.Errorf("unknown generator mode %q", g.Mode)
	}
	rule, ok := wfc.ParseCandidateRule(g.CandidateRule)
	if !ok {
		return opts, fmt.Errorf("unknown candidate rule %q", g.CandidateRule)
	}
	check, ok := wfc.ParseAdjacencyCheck(g.AdjacencyCheck)
	if !ok {
		return opts, fmt.Errorf("unknown adjacency check %q", g.AdjacencyCheck)
	}

	opts.Mode = mode
	opts.CandidateRule = rule
	opts.AdjacencyCheck = check
	opts.SeedOverride = g.SeedOverride
	opts.RequireUnusedSpawn = g.RequireUnusedSpawn
	opts.RecordSteps = g.RecordSteps
	if g.MaxAttempts > 0 {
		opts.MaxAttempts = g.MaxAttempts
	}
	if g.MaxWallNeighbors > 0 {
		opts.MaxWallNeighbors = g.MaxWallNeighbors
	}
	return opts, nil
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	// "http://localhost:3000" -> "localhost:3000"
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
