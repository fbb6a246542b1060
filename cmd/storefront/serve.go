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

	"github.com/fjod/skincare-cart/internal/cache"
	"github.com/fjod/skincare-cart/internal/cartsync"
	"github.com/fjod/skincare-cart/internal/catalog"
	"github.com/fjod/skincare-cart/internal/config"
	healthgrpc "github.com/fjod/skincare-cart/internal/grpc"
	apihttp "github.com/fjod/skincare-cart/internal/http"
	"github.com/fjod/skincare-cart/internal/localcart"
	"github.com/fjod/skincare-cart/internal/orders"
	"github.com/fjod/skincare-cart/internal/payment"
	"github.com/fjod/skincare-cart/internal/poller"
	"github.com/fjod/skincare-cart/internal/publisher"
	"github.com/fjod/skincare-cart/internal/repository"
	"github.com/fjod/skincare-cart/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	healthCheckInterval  = 15 * time.Second
	sessionSweepInterval = 10 * time.Minute
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, event workers and health server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		defer func() { _ = log.Sync() }()

		if !skipMigrations {
			if err := migrate(cfg, log); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply schema migrations on startup")
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// Server cart
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			log.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()
	cartRepo := repository.NewMongoRepository(mongoDB)
	if err := repository.EnsureIndexes(ctx, cartRepo); err != nil {
		return err
	}
	log.Info("connected to mongo", zap.String("database", cfg.Mongo.Database))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}

	products, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer products.Close()

	ordersRepo, err := orders.NewPostgresRepository(postgresCredentials(cfg), log)
	if err != nil {
		return err
	}
	defer ordersRepo.Close()

	carts := service.NewCartService(cartRepo, cache.NewRedisCache(redisClient), products, log)

	// Orders
	defaults := orders.Defaults{
		PaymentMethod: cfg.Order.DefaultPaymentMethod,
		Currency:      cfg.Order.DefaultCurrency,
	}
	orderService := orders.NewService(ordersRepo, products, carts, defaults, log)

	var verifier orders.PaymentVerifier
	if cfg.Payment.VerifyURL != "" {
		verifier = payment.NewHTTPVerifier(payment.Config{
			VerifyURL: cfg.Payment.VerifyURL,
			APIKey:    cfg.Payment.APIKey,
			Timeout:   cfg.Payment.Timeout,
		}, log)
	} else {
		log.Warn("payment verification disabled, guest orders trust the client confirmation")
	}
	assembler := orders.NewAssembler(defaults, orderService, verifier, log)

	sessions := cartsync.NewTracker(cartsync.NewOrchestrator(carts, log), cartsync.DefaultIdleTTL)
	api := apihttp.NewAPI(apihttp.Deps{
		Carts:         carts,
		GuestCarts:    localcart.NewRedisProvider(redisClient, cfg.Redis.GuestCartTTL, log.Named("localcart")),
		Catalog:       products,
		Sessions:      sessions,
		GuestCheckout: assembler,
		Orders:        orderService,
		Auth:          apihttp.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, log),
		Timeout:       cfg.HTTP.RequestTimeout,
		MaxBodySize:   cfg.HTTP.MaxBodySize,
		Log:           log,
	})
	httpServer := &http.Server{
		Addr:              ":" + cfg.App.HTTPPort,
		Handler:           otelhttp.NewHandler(api.Routes(), cfg.App.Name),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Events
	outbox := publisher.NewOutboxPoller(ordersRepo,
		publisher.NewKafkaWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...),
		cfg.Kafka.PollInterval, log)
	consumer := poller.NewPoller(carts,
		poller.NewKafkaReader(cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Brokers...), log)

	health := healthgrpc.NewHealthServer(map[string]healthgrpc.Check{
		"mongo": func(ctx context.Context) error {
			return mongoDB.Client().Ping(ctx, readpref.Primary())
		},
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
		"postgres": ordersRepo.Ping,
		"catalog":  products.Ping,
	}, healthCheckInterval, log)
	lis, err := net.Listen("tcp", ":"+cfg.App.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return health.Serve(lis)
	})
	g.Go(func() error {
		health.Watch(gctx)
		return nil
	})
	g.Go(func() error {
		sessions.Run(gctx, sessionSweepInterval)
		return nil
	})
	g.Go(func() error {
		outbox.Run(gctx)
		return outbox.Close()
	})
	g.Go(func() error {
		consumer.Run(gctx)
		consumer.Close()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		health.Stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("storefront stopped")
	return nil
}
