package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"doctors-portal-api/internal/auth"
	"doctors-portal-api/internal/booking"
	"doctors-portal-api/internal/config"
	"doctors-portal-api/internal/handler"
	"doctors-portal-api/internal/health"
	"doctors-portal-api/internal/middleware"
	"doctors-portal-api/internal/notify"
	"doctors-portal-api/internal/store"
	"doctors-portal-api/internal/store/memstore"
	"doctors-portal-api/internal/store/mongostore"
)

// backend is what every store driver provides.
type backend interface {
	handler.Store
	booking.Reserver
}

func main() {
	root := &cobra.Command{
		Use:           "doctors-portal",
		Short:         "Doctors portal booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serve := serveCmd()
	root.AddCommand(serve, migrateCmd())
	// no subcommand means serve
	root.RunE = serve.RunE

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and gRPC health servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg, newLogger(cfg))
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables or indexes for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			_, closeFn, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			closeFn()
			logger.Info().Str("driver", cfg.StoreDriver).Msg("schema up to date")
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

// openStore connects the configured driver and brings its schema up to date.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (backend, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, err
		}
		st := store.New(pool)
		if err := st.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Msg("connected to postgres")
		return st, pool.Close, nil

	case config.DriverMongo:
		st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := st.Close(cctx); err != nil {
				logger.Warn().Err(err).Msg("mongo disconnect")
			}
		}
		if err := st.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		logger.Info().Str("db", cfg.MongoDB).Msg("connected to mongo")
		return st, closeFn, nil

	default:
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return memstore.New(), func() {}, nil
	}
}

func newNotifier(cfg *config.Config, logger zerolog.Logger) (notify.Notifier, func()) {
	if cfg.RedisAddr == "" {
		return notify.NewLog(logger), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	logger.Info().Str("addr", cfg.RedisAddr).Str("channel", notify.Channel).Msg("publishing booking events to redis")
	return notify.NewRedis(client), func() { _ = client.Close() }
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	st, closeStore, err := openStore(startCtx, cfg, logger)
	cancel()
	if err != nil {
		return err
	}
	defer closeStore()

	notifier, closeNotifier := newNotifier(cfg, logger)
	defer closeNotifier()

	guard := booking.NewGuard(st, notifier, logger)
	issuer := auth.NewIssuer(st, cfg.JWTSecret)
	h := handler.New(st, guard, issuer, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	h.Routes(e, cfg.JWTSecret, middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
	}).Handler(e)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	// grpc carries only the health service
	monitor := health.NewMonitor(st, 15*time.Second, logger)
	grpcSrv := grpc.NewServer()
	monitor.Register(grpcSrv)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	go monitor.Run(ctx)
	go func() {
		logger.Info().Str("port", cfg.GRPCPort).Msg("grpc health on")
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("grpc")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("driver", cfg.StoreDriver).Msg("http on")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err = <-errCh:
		logger.Error().Err(err).Msg("http server failed")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := httpSrv.Shutdown(shutCtx); serr != nil {
		logger.Error().Err(serr).Msg("http shutdown")
	}
	grpcSrv.GracefulStop()

	// no new bookings past this point; let pending events reach the notifier
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDrain()
	if derr := guard.Drain(drainCtx); derr != nil {
		logger.Warn().Err(derr).Msg("booking notifications dropped at shutdown")
	}
	return err
}
