// Command authd serves login, refresh and logout over HTTP.
//
//	authd -config authd.yaml
//	authd -config authd.yaml seed <email> <password>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/internal/accountstore"
	"github.com/MrEthical07/sessionauth/internal/config"
	"github.com/MrEthical07/sessionauth/internal/httpapi"
	"github.com/MrEthical07/sessionauth/internal/logging"
	"github.com/MrEthical07/sessionauth/kafkaaudit"
	"github.com/MrEthical07/sessionauth/metrics/export/otel"
	"github.com/MrEthical07/sessionauth/password"
)

type accountBackend interface {
	sessionauth.AccountProvider
	Create(ctx context.Context, email, passwordHash string) (string, error)
}

func main() {
	cfgPath := flag.String("config", "", "path to YAML config; AUTHD_* env vars override it")
	flag.Parse()

	if err := run(*cfgPath, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "authd: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string, args []string) error {
	file, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(file.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	accounts, err := openAccounts(ctx, file.Postgres, logger)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		switch args[0] {
		case "seed":
			return seed(ctx, accounts, file, args[1:], logger)
		default:
			return fmt.Errorf("unknown command %q", args[0])
		}
	}

	return serve(ctx, file, accounts, logger)
}

func openAccounts(ctx context.Context, cfg config.Postgres, logger *zap.Logger) (accountBackend, error) {
	if cfg.DSN == "" {
		logger.Warn("postgres dsn empty, using in-memory accounts")
		return accountstore.NewMemory(), nil
	}
	store, err := accountstore.Open(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return store, nil
}

func seed(ctx context.Context, accounts accountBackend, file config.File, args []string, logger *zap.Logger) error {
	if len(args) != 2 {
		return errors.New("usage: authd seed <email> <password>")
	}

	engineCfg := file.EngineConfig()
	hasher, err := password.NewArgon2(password.Config{
		Memory:      engineCfg.Password.Memory,
		Time:        engineCfg.Password.Time,
		Parallelism: engineCfg.Password.Parallelism,
		SaltLength:  engineCfg.Password.SaltLength,
		KeyLength:   engineCfg.Password.KeyLength,
	})
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(args[1])
	if err != nil {
		return err
	}

	id, err := accounts.Create(ctx, args[0], hash)
	if err != nil {
		return err
	}
	logger.Info("account created", zap.String("account_id", id))
	return nil
}

func serve(ctx context.Context, file config.File, accounts accountBackend, logger *zap.Logger) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     file.Redis.Addr,
		Password: file.Redis.Password,
		DB:       file.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	builder := sessionauth.New().
		WithConfig(file.EngineConfig()).
		WithRedis(rdb).
		WithAccountProvider(accounts).
		WithLogger(logger)
	if file.Kafka.Enabled {
		writer := kafkaaudit.NewWriter(file.Kafka.Brokers, file.Kafka.Topic)
		builder = builder.WithAuditSink(kafkaaudit.New(writer, kafkaaudit.WithLogger(logger)))
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("engine close", zap.Error(err))
		}
	}()

	engineCfg := engine.Config()
	for _, w := range engineCfg.Lint() {
		logger.Warn("config lint", zap.String("code", w.Code), zap.String("detail", w.Message))
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(engine, logger)

	if file.Server.MetricsEnabled {
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = provider.Shutdown(context.Background()) }()

		exporter, err := otel.NewExporter(provider.Meter("authd"), engine)
		if err != nil {
			return err
		}
		defer func() { _ = exporter.Close() }()
		router.GET("/debug/metrics", httpapi.MetricsHandler(reader))
	}

	srv := &http.Server{Addr: file.Server.Addr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", file.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), file.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
