// Package config loads dealprep settings from a TOML or YAML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the config file, DEALPREP_*
// environment variables, command-line flags (applied by the CLI).
//
//	environment = "production"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[ttl]
//	news = "6h"
//
//	[credentials]
//	news = "..."
//
// The file format follows the extension: .yaml and .yml are YAML,
// everything else TOML.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/dealprep/pkg/env"
	errs "github.com/matzehuels/dealprep/pkg/errors"
)

// Cache backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Backends lists the accepted cache backends.
var Backends = []string{BackendFile, BackendMemory, BackendRedis, BackendMongo, BackendSQLite, BackendNone}

const (
	appName     = "dealprep"
	envPrefix   = "DEALPREP_"
	defaultAddr = ":8080"
)

// Config is the complete application configuration.
type Config struct {
	Environment string              `toml:"environment" yaml:"environment"`
	BaseURL     string              `toml:"base_url" yaml:"base_url"`
	Cache       CacheConfig         `toml:"cache" yaml:"cache"`
	HTTP        HTTPConfig          `toml:"http" yaml:"http"`
	Server      ServerConfig        `toml:"server" yaml:"server"`
	TTL         map[string]Duration `toml:"ttl" yaml:"ttl"`
	Credentials map[string]string   `toml:"credentials" yaml:"credentials"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend" yaml:"backend"`
	Dir           string `toml:"dir" yaml:"dir"`
	RedisURL      string `toml:"redis_url" yaml:"redis_url"`
	MongoURI      string `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database" yaml:"mongo_database"`
	SQLitePath    string `toml:"sqlite_path" yaml:"sqlite_path"`
}

// HTTPConfig tunes the proxy client. A zero timeout means none.
type HTTPConfig struct {
	Timeout Duration `toml:"timeout" yaml:"timeout"`
	Retries int      `toml:"retries" yaml:"retries"`
}

// ServerConfig configures `dealprep serve`.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment: string(env.Development),
		Cache:       CacheConfig{Backend: BackendFile},
		Server:      ServerConfig{Addr: defaultAddr},
		TTL:         map[string]Duration{},
		Credentials: map[string]string{},
	}
}

// DefaultPath returns the platform config file location,
// e.g. ~/.config/dealprep/config.toml on Linux.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.toml")
}

// Load reads path over the defaults and applies environment overrides.
// An empty path means [DefaultPath], which may be absent; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.decode(path, data); err != nil {
				return nil, err
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, errs.Wrap(errs.ErrCodeConfiguration, err, "read config %s", path)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(path string, data []byte) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		_, err = toml.Decode(string(data), c)
	}
	if err != nil {
		return errs.Wrap(errs.ErrCodeConfiguration, err, "parse config %s", path)
	}
	if c.TTL == nil {
		c.TTL = map[string]Duration{}
	}
	if c.Credentials == nil {
		c.Credentials = map[string]string{}
	}
	return nil
}

// ApplyEnv overrides settings from DEALPREP_* variables:
//
//	DEALPREP_ENV, DEALPREP_BASE_URL, DEALPREP_CACHE_BACKEND,
//	DEALPREP_REDIS_URL, DEALPREP_MONGO_URI, DEALPREP_HTTP_TIMEOUT,
//	DEALPREP_HTTP_RETRIES, DEALPREP_ADDR and DEALPREP_<PROVIDER>_KEY
//	for each provider.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("ENV", &c.Environment)
	str("BASE_URL", &c.BaseURL)
	str("CACHE_BACKEND", &c.Cache.Backend)
	str("REDIS_URL", &c.Cache.RedisURL)
	str("MONGO_URI", &c.Cache.MongoURI)
	str("ADDR", &c.Server.Addr)

	if v, ok := lookup(envPrefix + "HTTP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errs.Wrap(errs.ErrCodeConfiguration, err, "%sHTTP_TIMEOUT", envPrefix)
		}
		c.HTTP.Timeout = Duration(d)
	}
	if v, ok := lookup(envPrefix + "HTTP_RETRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errs.Wrap(errs.ErrCodeConfiguration, err, "%sHTTP_RETRIES", envPrefix)
		}
		c.HTTP.Retries = n
	}

	for _, p := range []string{env.EndpointOpenAI, env.EndpointBuiltWith, env.EndpointNews, env.EndpointScrape} {
		if v, ok := lookup(envPrefix + strings.ToUpper(p) + "_KEY"); ok && v != "" {
			if c.Credentials == nil {
				c.Credentials = map[string]string{}
			}
			c.Credentials[p] = v
		}
	}
	return nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if _, err := env.Resolve(c.Environment); err != nil {
		return err
	}
	if c.BaseURL != "" {
		if err := errs.ValidateURL(c.BaseURL); err != nil {
			return errs.Wrap(errs.ErrCodeConfiguration, err, "base_url")
		}
	}
	if !slices.Contains(Backends, c.Cache.Backend) {
		return errs.New(errs.ErrCodeConfiguration, "unknown cache backend %q (expected one of: %s)",
			c.Cache.Backend, strings.Join(Backends, ", "))
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return errs.New(errs.ErrCodeConfiguration, "cache backend redis requires cache.redis_url")
	}
	if c.Cache.Backend == BackendMongo && c.Cache.MongoURI == "" {
		return errs.New(errs.ErrCodeConfiguration, "cache backend mongo requires cache.mongo_uri")
	}
	if c.HTTP.Retries < 0 {
		return errs.New(errs.ErrCodeConfiguration, "http.retries must not be negative")
	}
	return nil
}

// TTLs converts the per-provider TTL table for the service.
func (c *Config) TTLs() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.TTL))
	for k, v := range c.TTL {
		out[k] = time.Duration(v)
	}
	return out
}

// Attempts is the proxy attempt count: the first try plus retries.
func (c *Config) Attempts() int { return 1 + c.HTTP.Retries }
