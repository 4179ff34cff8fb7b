package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/bryanwahyu/whatif/internal/infra/httpserver"
	"github.com/bryanwahyu/whatif/internal/middleware"
)

func ServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config load error: %w", err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			svc, st, err := buildService(ctx, cfg)
			if err != nil {
				return err
			}
			checkers := map[string]middleware.HealthChecker{}
			if st != nil {
				defer st.DB.Close()
				checkers["database"] = &middleware.DatabaseHealthChecker{DB: st.DB}
			}

			limiter := middleware.NewRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RequestsPerMinute)
			stopPrune := make(chan struct{})
			defer close(stopPrune)
			go limiter.Run(stopPrune)
			if svc.Sessions != nil {
				go svc.Sessions.Run(stopPrune)
			}

			handler := httpserver.NewRouter(svc, httpserver.Options{
				CORSOrigins: cfg.Server.CORSOrigins,
				Limiter:     limiter,
				Checkers:    checkers,
				Ready:       true,
			})

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      handler,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 3 * time.Minute,
				IdleTimeout:  60 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				klog.Infof("server listening on %s", addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errc <- err
				}
				close(errc)
			}()

			// graceful shutdown
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errc:
				return fmt.Errorf("server error: %w", err)
			case <-stop:
			}
			klog.Info("shutting down server...")

			ctx2, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx2); err != nil {
				klog.Errorf("shutdown error: %v", err)
			}
			return nil
		},
	}
}
