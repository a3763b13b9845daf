package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/api"
	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/cache"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the trust checker as a REST API service",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		authToken, _ := cmd.Flags().GetString("auth-token")
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")
		corsOrigins, _ := cmd.Flags().GetStringSlice("cors-origins")
		rateLimit, _ := cmd.Flags().GetInt("rate-limit")
		rateBurst, _ := cmd.Flags().GetInt("rate-burst")
		cacheTTL, _ := cmd.Flags().GetDuration("cache-ttl")
		batchCacheTTL, _ := cmd.Flags().GetDuration("batch-cache-ttl")
		maxBatch, _ := cmd.Flags().GetInt("max-batch")
		noCache, _ := cmd.Flags().GetBool("no-cache")

		svc, err := newTrustService()
		if err != nil {
			return err
		}

		var resultCache cache.Cache
		if !noCache {
			mem := cache.NewMemory(10 * time.Minute)
			defer mem.Close()
			resultCache = mem
		}

		server := api.NewServer(api.Config{
			Checks:        svc,
			Cache:         resultCache,
			CacheTTL:      cacheTTL,
			BatchCacheTTL: batchCacheTTL,
			MaxBatchSize:  maxBatch,
			AuthToken:     authToken,
			Logger:        logger,
			CORSOrigins:   corsOrigins,
			RateLimit:     rateLimit,
			RateBurst:     rateBurst,
		})

		httpServer := &http.Server{
			Addr:         addr,
			Handler:      server,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		// Channel to listen for errors from the server
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("%s API server listening on %s\n", colorInfo("→"), addr)
			fmt.Printf("%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Block until we receive a signal or an error
		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Printf("\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				// Force close if graceful shutdown fails
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}

			fmt.Printf("%s Server shutdown complete\n", colorSuccess("✓"))
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Address for the API server")
	serveCmd.Flags().String("auth-token", "", "Optional shared secret for API requests")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	serveCmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins (empty allows all)")
	serveCmd.Flags().Int("rate-limit", 0, "Requests per second per client IP (0 disables)")
	serveCmd.Flags().Int("rate-burst", 5, "Burst size for the per-IP rate limiter")
	serveCmd.Flags().Duration("cache-ttl", 7*24*time.Hour, "TTL for cached single-check results")
	serveCmd.Flags().Duration("batch-cache-ttl", 24*time.Hour, "TTL for cached batch-check results")
	serveCmd.Flags().Int("max-batch", 10, "Maximum domains per batch request")
	serveCmd.Flags().Bool("no-cache", false, "Disable the in-memory result cache")
}
