package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dealprep/pkg/cache"
	"github.com/matzehuels/dealprep/pkg/config"
	errs "github.com/matzehuels/dealprep/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the provider response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// clearer is implemented by backends that can drop every entry at once.
type clearer interface {
	Clear() (int, error)
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached provider responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := newCache(cmd.Context(), cfg.Cache, false)
			if err != nil {
				return err
			}
			defer store.Close()

			cl, ok := store.(clearer)
			if !ok {
				printWarning("The %s cache backend expires entries on its own and cannot be cleared from here", cfg.Cache.Backend)
				return nil
			}
			count, err := cl.Clear()
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Location: %s", cacheLocation(cfg.Cache))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the configured cache backend stores entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cacheLocation(cfg.Cache))
			return nil
		},
	}
}

// =============================================================================
// Backends
// =============================================================================

// newCache opens the configured backend. noCache forces the null cache.
func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendMemory:
		return cache.NewMemoryCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cfg.RedisURL)
	case config.BackendMongo:
		db := cfg.MongoDatabase
		if db == "" {
			db = cache.DefaultMongoDatabase
		}
		return cache.NewMongoCache(ctx, cfg.MongoURI, db)
	case config.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			dir, err := cacheDir()
			if err != nil {
				return nil, errs.Wrap(errs.ErrCodeConfiguration, err, "locate cache directory")
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errs.Wrap(errs.ErrCodeConfiguration, err, "create cache directory")
			}
			path = filepath.Join(dir, "cache.db")
		}
		return cache.NewSQLiteCache(path)
	case config.BackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	default:
		return nil, errs.New(errs.ErrCodeConfiguration, "unknown cache backend %q", cfg.Backend)
	}
}

// cacheLocation describes where cfg stores entries.
func cacheLocation(cfg config.CacheConfig) string {
	switch cfg.Backend {
	case config.BackendRedis:
		return cfg.RedisURL
	case config.BackendMongo:
		return cfg.MongoURI
	case config.BackendMemory, config.BackendNone:
		return "(not persisted)"
	case config.BackendSQLite:
		if cfg.SQLitePath != "" {
			return cfg.SQLitePath
		}
		dir, _ := cacheDir()
		return filepath.Join(dir, "cache.db")
	default:
		if cfg.Dir != "" {
			return cfg.Dir
		}
		dir, _ := cacheDir()
		return dir
	}
}

// cacheDir returns the cache directory using XDG standard (~/.cache/dealprep/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
