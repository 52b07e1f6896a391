package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/LuizEscobarC/simplified-payment-api/internal/config"
	"github.com/LuizEscobarC/simplified-payment-api/internal/gateway"
	"github.com/LuizEscobarC/simplified-payment-api/internal/infra/authorizer"
	"github.com/LuizEscobarC/simplified-payment-api/internal/infra/http/handler"
	internalmiddleware "github.com/LuizEscobarC/simplified-payment-api/internal/infra/http/middleware"
	"github.com/LuizEscobarC/simplified-payment-api/internal/infra/mongodb"
	"github.com/LuizEscobarC/simplified-payment-api/internal/infra/postgres"
	"github.com/LuizEscobarC/simplified-payment-api/internal/infra/rabbitmq"
	redisinfra "github.com/LuizEscobarC/simplified-payment-api/internal/infra/redis"
	"github.com/LuizEscobarC/simplified-payment-api/internal/usecase"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Missing .env is fine: deployments use real environment variables.
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using system environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	dbPool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to PostgreSQL")
	}
	defer dbPool.Close()
	log.Info().Msg("connected to PostgreSQL")

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("could not create MongoDB client")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("disconnecting MongoDB")
		}
	}()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("MongoDB is not responding")
	}
	cancel()
	log.Info().Msg("connected to MongoDB")

	// The event log is part of the financial record, so its indexes are a
	// startup requirement.
	eventStore := mongodb.NewEventStore(mongoClient, cfg.MongoDatabase)
	if err := eventStore.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("could not create event indexes")
	}

	accountRepo := gateway.AccountRepository(postgres.NewAccountRepository(dbPool))
	transferRepo := gateway.TransferRepository(postgres.NewTransferRepository(dbPool))
	txManager := gateway.TransactionManager(postgres.NewUow(dbPool))

	// The cache is an optimization: if Redis is down we serve every read
	// from PostgreSQL instead of failing startup.
	redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("could not connect to Redis, caching disabled")
	} else {
		accountRepo = redisinfra.NewCachedAccountRepository(accountRepo, redisClient, cfg.CacheTTL)
		transferRepo = redisinfra.NewCachedTransferRepository(transferRepo, redisClient, cfg.CacheTTL)
		// Entries invalidated inside a unit of work are deleted again after
		// the commit, so a racing read cannot pin a pre-commit balance.
		txManager = redisinfra.NewTxManager(txManager, redisClient)
		log.Info().Msg("connected to Redis")
	}

	var publisher gateway.NotificationPublisher
	rabbitConn, err := amqp.DialConfig(cfg.RabbitURL, amqp.Config{
		Properties: amqp.Table{"connection_name": "PaymentAPI_Publisher"},
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not connect to RabbitMQ, notifications disabled")
	} else {
		defer rabbitConn.Close()
		ch, err := rabbitConn.Channel()
		if err != nil {
			log.Fatal().Err(err).Msg("could not open RabbitMQ channel")
		}
		defer ch.Close()
		if err := rabbitmq.DeclareTopology(ch); err != nil {
			log.Fatal().Err(err).Msg("could not declare RabbitMQ topology")
		}
		publisher = rabbitmq.NewPublisher(ch)
		log.Info().Msg("connected to RabbitMQ")
	}

	// One breaker instance per process, shared by every request.
	breaker := authorizer.NewCircuitBreaker(authorizer.DefaultFailureThreshold)
	authorizerClient := authorizer.NewClient(cfg.AuthorizerURL, breaker)

	executeTransfer := usecase.NewExecuteTransfer(accountRepo, transferRepo, eventStore, authorizerClient, txManager, publisher)
	listTransfers := usecase.NewListTransfers(transferRepo)
	createAccount := usecase.NewCreateAccount(accountRepo)
	getAccount := usecase.NewGetAccount(accountRepo)
	getStatement := usecase.NewGetStatement(accountRepo, eventStore)

	transferHandler := handler.NewTransferHandler(executeTransfer, listTransfers)
	accountHandler := handler.NewAccountHandler(createAccount, getAccount, getStatement)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))
	router.Use(internalmiddleware.Metrics)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("writing health response")
		}
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Post("/transfers", transferHandler.Create)
	router.Get("/transfers", transferHandler.List)
	router.Post("/accounts", accountHandler.Create)
	router.Get("/accounts/{id}", accountHandler.Get)
	router.Get("/accounts/{id}/statement", accountHandler.Statement)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("server listening")
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal().Err(err).Msg("HTTP server failed")
	}
}
