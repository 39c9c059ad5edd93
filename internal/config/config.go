// Package config loads reqgraph settings from defaults, an optional
// TOML or YAML file, a .env file and REQGRAPH_* environment variables.
// Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/reqgraph/pkg/cache"
	"github.com/matzehuels/reqgraph/pkg/deps"
	rgerrors "github.com/matzehuels/reqgraph/pkg/errors"
	"github.com/matzehuels/reqgraph/pkg/integrations"
	"github.com/matzehuels/reqgraph/pkg/integrations/pypi"
)

// EnvPrefix prefixes every environment variable read by [Load].
const EnvPrefix = "REQGRAPH_"

// DefaultFiles are the config file names searched in the working directory
// when no explicit path is given.
var DefaultFiles = []string{"reqgraph.toml", "reqgraph.yaml", "reqgraph.yml"}

// Config holds every setting of a reqgraph run.
type Config struct {
	File   string `toml:"file" yaml:"file" validate:"required"`
	Output string `toml:"output" yaml:"output" validate:"required"`
	PDF    string `toml:"pdf" yaml:"pdf"`

	Depth        int  `toml:"depth" yaml:"depth" validate:"gte=0,lte=64"`
	MaxNodes     int  `toml:"max_nodes" yaml:"max_nodes" validate:"gte=1"`
	Workers      int  `toml:"workers" yaml:"workers" validate:"gte=1,lte=256"`
	ShareVisited bool `toml:"share_visited" yaml:"share_visited"`

	Levels int    `toml:"levels" yaml:"levels" validate:"gte=0,lte=64"`
	View   string `toml:"view" yaml:"view" validate:"oneof=depth unique clusters shared"`

	PyPI  PyPIConfig   `toml:"pypi" yaml:"pypi"`
	Cache CacheConfig  `toml:"cache" yaml:"cache"`
	Serve ServerConfig `toml:"serve" yaml:"serve"`
}

// PyPIConfig configures the registry client.
type PyPIConfig struct {
	BaseURL     string        `toml:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Timeout     time.Duration `toml:"timeout" yaml:"timeout" validate:"gt=0"`
	Attempts    int           `toml:"attempts" yaml:"attempts" validate:"gte=1,lte=10"`
	RateLimit   float64       `toml:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	RuntimeOnly bool          `toml:"runtime_only" yaml:"runtime_only"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Backend string        `toml:"backend" yaml:"backend" validate:"oneof=file memory redis mongo none"`
	TTL     time.Duration `toml:"ttl" yaml:"ttl" validate:"gt=0"`
	Dir     string        `toml:"dir" yaml:"dir"`
	Size    int           `toml:"size" yaml:"size" validate:"gte=0"`

	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db" validate:"gte=0"`

	MongoURI        string `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database" yaml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection" yaml:"mongo_collection"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `toml:"addr" yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `toml:"read_timeout" yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `toml:"write_timeout" yaml:"write_timeout" validate:"gt=0"`
	MaxRoots     int           `toml:"max_roots" yaml:"max_roots" validate:"gte=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		File:     "requirements.txt",
		Output:   "dependency_graph.svg",
		Depth:    deps.DefaultMaxDepth,
		MaxNodes: deps.DefaultMaxNodes,
		Workers:  deps.DefaultWorkers,
		View:     "shared",
		PyPI: PyPIConfig{
			BaseURL:  pypi.DefaultBaseURL,
			Timeout:  integrations.DefaultTimeout,
			Attempts: 1,
		},
		Cache: CacheConfig{
			Backend: cache.BackendFile,
			TTL:     deps.DefaultCacheTTL,
			Size:    cache.DefaultMemorySize,
		},
		Serve: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			MaxRoots:     50,
		},
	}
}

// Load builds a Config from defaults, the config file at path (or the first
// of [DefaultFiles] found when path is empty), a .env file in the working
// directory and the environment. The result is not yet validated since
// flags may still override it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findDefault()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findDefault() string {
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return rgerrors.Wrap(rgerrors.ErrCodeFileNotFound, err, "read config %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return rgerrors.New(rgerrors.ErrCodeInvalidFormat, "unsupported config format %q (use .toml or .yaml)", filepath.Ext(path))
	}
	if err != nil {
		return rgerrors.Wrap(rgerrors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides fields from REQGRAPH_* variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("FILE", &c.File)
	e.str("OUTPUT", &c.Output)
	e.str("PDF", &c.PDF)
	e.int("DEPTH", &c.Depth)
	e.int("MAX_NODES", &c.MaxNodes)
	e.int("WORKERS", &c.Workers)
	e.bool("SHARE_VISITED", &c.ShareVisited)
	e.int("LEVELS", &c.Levels)
	e.str("VIEW", &c.View)

	e.str("PYPI_URL", &c.PyPI.BaseURL)
	e.duration("TIMEOUT", &c.PyPI.Timeout)
	e.int("ATTEMPTS", &c.PyPI.Attempts)
	e.float("RATE_LIMIT", &c.PyPI.RateLimit)
	e.bool("RUNTIME_ONLY", &c.PyPI.RuntimeOnly)

	e.str("CACHE_BACKEND", &c.Cache.Backend)
	e.duration("CACHE_TTL", &c.Cache.TTL)
	e.str("CACHE_DIR", &c.Cache.Dir)
	e.int("CACHE_SIZE", &c.Cache.Size)
	e.str("REDIS_ADDR", &c.Cache.RedisAddr)
	e.str("REDIS_PASSWORD", &c.Cache.RedisPassword)
	e.int("REDIS_DB", &c.Cache.RedisDB)
	e.str("MONGO_URI", &c.Cache.MongoURI)
	e.str("MONGO_DATABASE", &c.Cache.MongoDatabase)
	e.str("MONGO_COLLECTION", &c.Cache.MongoCollection)

	e.str("ADDR", &c.Serve.Addr)

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) fail(key, v string, err error) {
	e.errs = append(e.errs, rgerrors.Wrap(rgerrors.ErrCodeInvalidInput, err, "%s%s=%q", EnvPrefix, key, v))
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) bool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = d
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return rgerrors.Wrap(rgerrors.ErrCodeInvalidInput, err, "invalid configuration")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return rgerrors.New(rgerrors.ErrCodeInvalidInput, "invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %v", field, fe.Value())
	default:
		return fmt.Sprintf("%s must satisfy %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

// CacheBackend returns the settings for [cache.Open].
func (c *Config) CacheBackend() cache.Config {
	return cache.Config{
		Backend:         c.Cache.Backend,
		Dir:             c.Cache.Dir,
		Size:            c.Cache.Size,
		RedisAddr:       c.Cache.RedisAddr,
		RedisPassword:   c.Cache.RedisPassword,
		RedisDB:         c.Cache.RedisDB,
		MongoURI:        c.Cache.MongoURI,
		MongoDatabase:   c.Cache.MongoDatabase,
		MongoCollection: c.Cache.MongoCollection,
	}
}

// ResolveOptions returns resolver options. Logger and Normalize are left
// for the caller.
func (c *Config) ResolveOptions(refresh bool) deps.Options {
	return deps.Options{
		MaxDepth:     c.Depth,
		MaxNodes:     c.MaxNodes,
		Workers:      c.Workers,
		CacheTTL:     c.Cache.TTL,
		Refresh:      refresh,
		ShareVisited: c.ShareVisited,
	}
}

// ClientOptions returns the HTTP client options for the registry client.
func (c *Config) ClientOptions() []integrations.ClientOption {
	return []integrations.ClientOption{
		integrations.WithTimeout(c.PyPI.Timeout),
		integrations.WithAttempts(c.PyPI.Attempts),
		integrations.WithRateLimit(c.PyPI.RateLimit, c.Workers),
	}
}

// NewPyPIClient builds the registry client for this configuration on top of
// backend.
func (c *Config) NewPyPIClient(backend cache.Cache) *pypi.Client {
	client := pypi.NewClient(backend, c.Cache.TTL, pypi.Options{RuntimeOnly: c.PyPI.RuntimeOnly}, c.ClientOptions()...)
	if c.PyPI.BaseURL != "" && c.PyPI.BaseURL != pypi.DefaultBaseURL {
		client = client.WithBaseURL(c.PyPI.BaseURL)
	}
	return client
}
