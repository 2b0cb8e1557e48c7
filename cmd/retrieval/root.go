package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/internal/searcher/catalog"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/logger"
	pkgredis "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/resilience"
)

var redisBreaker = resilience.BreakerConfig{FailureThreshold: 5, ResetTimeout: 30 * time.Second}

// app carries the loaded configuration from the root command to its children.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "retrieval",
		Short:         "TF-IDF retrieval over a preprocessed document corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Logging.Level = a.logLevel
			}
			logger.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			a.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file (defaults apply when empty)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	cmd.AddCommand(
		newBuildCmd(a),
		newServeCmd(a),
		newSearchCmd(a),
		newBooleanCmd(a),
	)
	return cmd
}

// execute runs cmd and reports its error on stderr.
func execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
	}
	return err
}

// openRedis connects when Redis is enabled. A nil client means Redis is off
// or unreachable; the latter is logged.
func openRedis(cfg *config.Config) *pkgredis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	rc, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable", "addr", cfg.Redis.Addr, "error", err)
		return nil
	}
	return rc
}

// urlResolver returns the Redis-backed catalog when configured, or nil to
// let the snapshot loader read the URL index file.
func urlResolver(cfg *config.Config, rc *pkgredis.Client) catalog.Resolver {
	if cfg.Catalog.Backend != "redis" {
		return nil
	}
	if rc == nil {
		slog.Warn("catalog backend is redis but redis is unavailable, falling back to url index file")
		return nil
	}
	return catalog.NewRedisResolver(rc, cfg.Catalog.RedisKey, redisBreaker)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return fmt.Sprintf("pid%d", os.Getpid())
	}
	return h
}
