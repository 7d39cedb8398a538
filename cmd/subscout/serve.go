package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/subscout/internal/api"
	"github.com/Veraticus/subscout/internal/certs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan, import and commit API over HTTP",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default from config)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed localhost certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	srv := api.NewServer(a.cfg.Server.Addr, api.NewHandler(a.engine, a.cfg.UserID))
	if a.cfg.Server.TLS {
		tlsCfg, tlsErr := certs.TLSConfig(certs.NewFileManager(a.cfg.Server.CertDir))
		if tlsErr != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", tlsErr)
		}
		srv.TLSConfig = tlsCfg
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API listening", "addr", srv.Addr, "tls", srv.TLSConfig != nil)
		if srv.TLSConfig != nil {
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("API stopped")
	return nil
}
