package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"issue-tracker/internal/cache"
	"issue-tracker/internal/config"
	"issue-tracker/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveRun(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, pool, err := setup(cmd)
	if err != nil {
		return err
	}

	redisCache := openCache(ctx, cfg, log)
	app := server.New(cfg, log, pool, redisCache)
	defer func() {
		if err := app.Close(); err != nil {
			log.WithError(err).Warn("close application")
		}
	}()

	srv := app.Server()
	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
			"cache":       redisCache != nil,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openCache connects to redis when it is enabled. An unreachable server is
// logged and the application runs without a cache.
func openCache(ctx context.Context, cfg *config.Config, log *logrus.Logger) *cache.RedisCache {
	if !cfg.Redis.Enabled {
		return nil
	}

	c := cache.NewRedisCache(cacheConfig(cfg))
	if err := c.Health(ctx); err != nil {
		log.WithError(err).WithField("addr", cfg.GetRedisAddr()).Warn("redis unavailable, continuing without cache")
		_ = c.Close()
		return nil
	}
	return c
}

func cacheConfig(cfg *config.Config) *cache.Config {
	c := cache.DefaultConfig()
	c.Addr = cfg.GetRedisAddr()
	c.Password = cfg.Redis.Password
	c.DB = cfg.Redis.DB
	c.PoolSize = cfg.Redis.PoolSize
	c.MinIdleConns = cfg.Redis.MinIdleConns
	c.MaxRetries = cfg.Redis.MaxRetries
	c.DialTimeout = cfg.Redis.DialTimeout
	c.ReadTimeout = cfg.Redis.ReadTimeout
	c.WriteTimeout = cfg.Redis.WriteTimeout
	return c
}
