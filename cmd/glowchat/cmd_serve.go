package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"glowchat/internal/proxy"
)

// serveCmd runs the stateless gateway proxy: it holds the upstream
// credentials so the chat client never sees them.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway proxy for chat clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Proxy.APIKey == "" {
			return fmt.Errorf("no upstream API key configured (set proxy.api_key or OPENAI_API_KEY)")
		}
		timeout, err := cfg.ProxyTimeout()
		if err != nil {
			return err
		}

		srv := proxy.NewServer(proxy.Config{
			UpstreamURL:     cfg.Proxy.UpstreamURL,
			APIKey:          cfg.Proxy.APIKey,
			Model:           cfg.Proxy.Model,
			MaxTokens:       cfg.Proxy.MaxTokens,
			TokenLimitField: cfg.Proxy.TokenLimitField,
			Timeout:         timeout,
		}, logger)

		httpSrv := &http.Server{
			Addr:              cfg.Proxy.Listen,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("gateway proxy listening",
				zap.String("addr", cfg.Proxy.Listen),
				zap.String("model", cfg.Proxy.Model),
				zap.String("token_limit_field", cfg.Proxy.TokenLimitField))
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}
