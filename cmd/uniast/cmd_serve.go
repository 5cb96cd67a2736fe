package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/dhamidi/uniast/config"
	"github.com/dhamidi/uniast/ui"
)

func newServeCmd() *cobra.Command {
	var addr string
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and playground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
				if cfg.Log.Verbosity > 0 || cfg.Log.File != "" {
					configureLogging(cfg.Log.Verbosity, cfg.Log.File)
				}
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			server, err := ui.NewServer(
				ui.WithMaxSourceBytes(cfg.Server.MaxSourceBytes),
				ui.WithCacheEntries(cfg.Server.CacheEntries),
				ui.WithCacheMaxEntryBytes(cfg.Server.CacheMaxEntryBytes),
				ui.WithParseTimeout(cfg.Parse.Timeout),
			)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}

			httpServer := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      h2c.NewHandler(ui.CORS(server), &http2.Server{}),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				errc <- httpServer.ListenAndServe()
			}()

			displayAddr := cfg.Server.Addr
			if strings.HasPrefix(displayAddr, ":") {
				displayAddr = "localhost" + displayAddr
			}
			fmt.Printf("Starting server at http://%s\n", displayAddr)

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "address to listen on")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")

	return cmd
}
