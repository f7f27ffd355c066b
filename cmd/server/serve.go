package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Ammar-alrfee/fit-manager/internal/attendance"
	"github.com/Ammar-alrfee/fit-manager/internal/auth"
	"github.com/Ammar-alrfee/fit-manager/internal/directory"
	"github.com/Ammar-alrfee/fit-manager/internal/service"
	"github.com/Ammar-alrfee/fit-manager/internal/storage"
	"github.com/Ammar-alrfee/fit-manager/internal/storage/memory"
	"github.com/Ammar-alrfee/fit-manager/internal/storage/sqlite"
	"github.com/Ammar-alrfee/fit-manager/internal/tracing"
)

var version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the FitManager API server",
	RunE:  runServe,
}

func openStore() (storage.Store, error) {
	if cfg.Storage.Driver == "sqlite" {
		store, err := sqlite.New(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", "sqlite", "database", cfg.Storage.SQLitePath)
		return store, nil
	}
	slog.Info("Storage initialized", "driver", "memory")
	return memory.New(), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint: cfg.Tracing.Endpoint,
		Insecure: true,
		Version:  version,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	location, err := cfg.Attendance.Location()
	if err != nil {
		return err
	}

	dir := directory.New(store).WithLocation(location)
	ledger := attendance.New(dir, store)

	if cfg.Seed {
		created, err := dir.Seed(ctx)
		if err != nil {
			return err
		}
		if created > 0 {
			slog.Info("Loaded sample members", "count", created)
		}
	}

	table, err := auth.NewCredentialTable(cfg.Auth.Accounts, 0)
	if err != nil {
		return err
	}
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	throttle := auth.NewThrottle(cfg.Auth.Limit(), cfg.Auth.LoginBurst)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)
	r.Use(loggingMiddleware, corsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	service.Register(r, jwtManager,
		service.NewAuthService(auth.NewIssuer(table, jwtManager), throttle, slog.Default()),
		service.NewMemberService(dir, cfg.Prices.Table()),
		service.NewAttendanceService(ledger),
		service.NewReportService(dir, ledger),
	)

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", cfg.HTTP.Addr, "version", version)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
