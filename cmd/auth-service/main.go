package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/playlist-transfer-api/internal/config"
	"github.com/pribylovaa/playlist-transfer-api/internal/hasher"
	apihttp "github.com/pribylovaa/playlist-transfer-api/internal/http"
	"github.com/pribylovaa/playlist-transfer-api/internal/http/handlers"
	"github.com/pribylovaa/playlist-transfer-api/internal/metrics"
	"github.com/pribylovaa/playlist-transfer-api/internal/secrets"
	"github.com/pribylovaa/playlist-transfer-api/internal/service"
	"github.com/pribylovaa/playlist-transfer-api/internal/storage/postgres"
	"github.com/pribylovaa/playlist-transfer-api/internal/token"
	grpcserver "github.com/pribylovaa/playlist-transfer-api/internal/transport/grpc"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const readinessInterval = 10 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", slog.String("env", cfg.Env))

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}

	rootCancel()
	log.Info("service_stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// Ключ подписи и строка подключения: из конфига или из Parameter Store.
	var ssmAPI *ssm.Client
	if cfg.UsesSSM() {
		var err error
		if ssmAPI, err = secrets.NewSSMClient(ctx, cfg.AWS.Region, cfg.AWS.Endpoint); err != nil {
			return err
		}
		log.Info("ssm_client_initialized", slog.String("region", cfg.AWS.Region))
	}

	var signing secrets.Resolver = secrets.Static(cfg.Auth.JWTSecret)
	if cfg.Auth.JWTSecretParam != "" {
		signing = secrets.NewSSM(ssmAPI, cfg.Auth.JWTSecretParam, cfg.AWS.SecretCacheTTL)
	}

	dbURL := cfg.DB.DatabaseURL
	if cfg.DB.DatabaseURLParam != "" {
		v, err := secrets.NewSSM(ssmAPI, cfg.DB.DatabaseURLParam, cfg.AWS.SecretCacheTTL).Value(ctx)
		if err != nil {
			return fmt.Errorf("resolve db url: %w", err)
		}
		dbURL = v
	}

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	str, err := postgres.New(dbCtx, dbURL)
	dbCancel()
	if err != nil {
		return err
	}
	defer str.Close()
	log.Info("postgres_connected")

	if cfg.DB.Migrate {
		if err := str.Migrate(ctx); err != nil {
			return err
		}
		log.Info("migrations_applied")
	}

	// Сервис.
	hs := hasher.New(hasher.Params{
		MemoryKiB:   cfg.Hasher.MemoryKiB,
		Iterations:  cfg.Hasher.Iterations,
		Parallelism: cfg.Hasher.Parallelism,
		SaltLength:  cfg.Hasher.SaltLength,
		KeyLength:   cfg.Hasher.KeyLength,
	})
	issuer := token.New(signing, cfg.Auth)

	srvc := service.New(str, hs, issuer, cfg.Auth)
	srvc.SetMetrics(metrics.New(prometheus.DefaultRegisterer))
	log.Info("service_initialized")

	// gRPC health-сервер.
	grpcSrv := grpcserver.New(grpcserver.Options{
		Logger:     log,
		Timeout:    cfg.Timeouts.Service,
		Reflection: cfg.Env == envLocal || cfg.Env == envDev,
	})

	// HTTP: API + служебные эндпойнты.
	api := apihttp.NewRouter(handlers.New(srvc, cfg.Auth), apihttp.Options{
		Logger:   log,
		Timeout:  cfg.Timeouts.Service,
		BasePath: cfg.BasePath,
		Verifier: issuer,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if grpcSrv.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcAddr := cfg.GRPC.Addr()
	listener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", grpcAddr, err)
	}

	serveErrCh := make(chan error, 2)
	go func() {
		log.Info("http_listen_start", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- fmt.Errorf("http serve: %w", err)
		}
	}()
	go func() {
		if err := grpcSrv.Serve(listener); err != nil {
			serveErrCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	// Готовность следует за доступностью БД.
	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	go grpcSrv.WatchReadiness(watchCtx, str, readinessInterval)

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown_requested")
	case serveErr = <-serveErrCh:
	}
	watchCancel()

	// Graceful stop с таймаутом.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	grpcSrv.Shutdown(shutdownCtx)
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_failed", slog.String("err", err.Error()))
	}

	return serveErr
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
