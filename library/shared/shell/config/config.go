package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix is prepended to every configuration key.
const EnvPrefix = "LIBRARY_"

const (
	KeyHTTPAddr           = "HTTP_ADDR"
	KeyStorageEngine      = "STORAGE_ENGINE"
	KeyPostgresDSN        = "POSTGRES_DSN"
	KeyPostgresDriver     = "POSTGRES_DRIVER"
	KeyPostgresReplicaDSN = "POSTGRES_REPLICA_DSN"
	KeyMongoURI           = "MONGO_URI"
	KeyMongoDatabase      = "MONGO_DATABASE"
	KeyJWTSecret          = "JWT_SECRET"
	KeyTokenTTL           = "TOKEN_TTL"
	KeyBcryptCost         = "BCRYPT_COST"
	KeyRequestTimeout     = "REQUEST_TIMEOUT"
	KeySweepInterval      = "SWEEP_INTERVAL"
	KeyLogLevel           = "LOG_LEVEL"
	KeyLogFormat          = "LOG_FORMAT"
	KeyOTelEndpoint       = "OTEL_ENDPOINT"
)

const (
	EnginePostgres = "postgres"
	EngineMongo    = "mongo"
	EngineMemory   = "memory"

	DriverPGX  = "pgx"
	DriverSQL  = "sql"
	DriverSQLX = "sqlx"

	FormatJSON = "json"
	FormatText = "text"
)

const (
	defaultHTTPAddr       = ":5000"
	defaultStorageEngine  = EnginePostgres
	defaultPostgresDriver = DriverPGX
	defaultMongoDatabase  = "library"
	defaultTokenTTL       = 7 * 24 * time.Hour
	defaultRequestTimeout = 5 * time.Second
	defaultSweepInterval  = time.Hour
	defaultLogLevel       = "info"
	defaultLogFormat      = FormatJSON
)

// ErrInvalidConfig wraps every configuration problem found by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete runtime configuration of the library service.
type Config struct {
	HTTPAddr           string
	StorageEngine      string
	PostgresDSN        string
	PostgresDriver     string
	PostgresReplicaDSN string
	MongoURI           string
	MongoDatabase      string
	JWTSecret          string
	TokenTTL           time.Duration
	BcryptCost         int
	RequestTimeout     time.Duration
	SweepInterval      time.Duration
	LogLevel           string
	LogFormat          string
	OTelEndpoint       string
}

// TelemetryEnabled reports whether traces and metrics are exported.
func (c Config) TelemetryEnabled() bool {
	return c.OTelEndpoint != ""
}

// Load reads envFiles (".env" by default) into the process environment without
// overriding variables that are already set, then builds the Config from the environment.
// Missing env files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, file, err)
		}
	}

	return FromLookup(os.LookupEnv)
}

// FromLookup builds the Config from lookup, applies the defaults and validates the result.
// All problems are reported at once, joined into one error.
func FromLookup(lookup func(key string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}

	cfg := Config{
		HTTPAddr:           r.string(KeyHTTPAddr, defaultHTTPAddr),
		StorageEngine:      strings.ToLower(r.string(KeyStorageEngine, defaultStorageEngine)),
		PostgresDSN:        r.string(KeyPostgresDSN, ""),
		PostgresDriver:     strings.ToLower(r.string(KeyPostgresDriver, defaultPostgresDriver)),
		PostgresReplicaDSN: r.string(KeyPostgresReplicaDSN, ""),
		MongoURI:           r.string(KeyMongoURI, ""),
		MongoDatabase:      r.string(KeyMongoDatabase, defaultMongoDatabase),
		JWTSecret:          r.string(KeyJWTSecret, ""),
		TokenTTL:           r.duration(KeyTokenTTL, defaultTokenTTL),
		BcryptCost:         r.int(KeyBcryptCost, bcrypt.DefaultCost),
		RequestTimeout:     r.duration(KeyRequestTimeout, defaultRequestTimeout),
		SweepInterval:      r.duration(KeySweepInterval, defaultSweepInterval),
		LogLevel:           strings.ToLower(r.string(KeyLogLevel, defaultLogLevel)),
		LogFormat:          strings.ToLower(r.string(KeyLogFormat, defaultLogFormat)),
		OTelEndpoint:       r.string(KeyOTelEndpoint, ""),
	}

	r.problems = append(r.problems, cfg.validate()...)

	if len(r.problems) > 0 {
		return Config{}, errors.Join(append([]error{ErrInvalidConfig}, r.problems...)...)
	}

	return cfg, nil
}

func (c Config) validate() []error {
	var problems []error

	switch c.StorageEngine {
	case EnginePostgres:
		if c.PostgresDSN == "" {
			problems = append(problems, missing(KeyPostgresDSN))
		}
		if c.PostgresDriver != DriverPGX && c.PostgresDriver != DriverSQL && c.PostgresDriver != DriverSQLX {
			problems = append(problems, invalid(KeyPostgresDriver, c.PostgresDriver, "pgx, sql or sqlx"))
		}
		if c.PostgresReplicaDSN != "" && c.PostgresDriver != DriverPGX {
			problems = append(problems, invalid(KeyPostgresReplicaDSN, "set", "only supported with the pgx driver"))
		}
	case EngineMongo:
		if c.MongoURI == "" {
			problems = append(problems, missing(KeyMongoURI))
		}
	case EngineMemory:
	default:
		problems = append(problems, invalid(KeyStorageEngine, c.StorageEngine, "postgres, mongo or memory"))
	}

	if c.JWTSecret == "" && c.StorageEngine != EngineMemory {
		problems = append(problems, missing(KeyJWTSecret))
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, invalid(KeyBcryptCost, strconv.Itoa(c.BcryptCost),
			fmt.Sprintf("between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)))
	}

	durations := []struct {
		key   string
		value time.Duration
	}{
		{KeyTokenTTL, c.TokenTTL},
		{KeyRequestTimeout, c.RequestTimeout},
		{KeySweepInterval, c.SweepInterval},
	}

	for _, d := range durations {
		if d.value <= 0 {
			problems = append(problems, invalid(d.key, d.value.String(), "a positive duration"))
		}
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		problems = append(problems, invalid(KeyLogLevel, c.LogLevel, "debug, info, warn or error"))
	}

	if c.LogFormat != FormatJSON && c.LogFormat != FormatText {
		problems = append(problems, invalid(KeyLogFormat, c.LogFormat, "json or text"))
	}

	return problems
}

type reader struct {
	lookup   func(string) (string, bool)
	problems []error
}

func (r *reader) string(key, fallback string) string {
	value, ok := r.lookup(EnvPrefix + key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}

	return strings.TrimSpace(value)
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	raw := r.string(key, "")
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		r.problems = append(r.problems, invalid(key, raw, "a duration like 5s or 168h"))
		return fallback
	}

	return d
}

func (r *reader) int(key string, fallback int) int {
	raw := r.string(key, "")
	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		r.problems = append(r.problems, invalid(key, raw, "an integer"))
		return fallback
	}

	return n
}

func missing(key string) error {
	return fmt.Errorf("%s%s is required", EnvPrefix, key)
}

func invalid(key, value, expected string) error {
	return fmt.Errorf("%s%s=%q is invalid, expected %s", EnvPrefix, key, value, expected)
}
