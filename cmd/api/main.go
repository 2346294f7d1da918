package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/wms-platform/export-service/internal/application"
	mongoRepo "github.com/wms-platform/export-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/export-service/pkg/cloudevents"
	apperrors "github.com/wms-platform/export-service/pkg/errors"
	"github.com/wms-platform/export-service/pkg/kafka"
	"github.com/wms-platform/export-service/pkg/logging"
	"github.com/wms-platform/export-service/pkg/metrics"
	"github.com/wms-platform/export-service/pkg/middleware"
	"github.com/wms-platform/export-service/pkg/mongodb"
	"github.com/wms-platform/export-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/export-service/pkg/outbox/mongodb"
	"github.com/wms-platform/export-service/pkg/resilience"
)

const serviceName = "export-service"

func main() {
	_ = godotenv.Load()

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting export-service API")

	config := loadConfig()
	ctx := context.Background()

	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	// the database may still be coming up when the service starts
	var mongoClient *mongodb.Client
	err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
		var connErr error
		mongoClient, connErr = mongodb.NewClient(ctx, config.MongoDB)
		return connErr
	})
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	db := mongoClient.Database()

	kafkaProducer := kafka.NewProducer(config.Kafka)
	protectedProducer := kafka.NewCircuitBreakerProducer(kafkaProducer, logger, m)
	defer protectedProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceExport)

	lotRepo := mongoRepo.NewLotRepository(db, m)
	exportRepo := mongoRepo.NewExportRecordRepository(db)
	outboundRepo := mongoRepo.NewOutboundRecordRepository(db)
	shipmentRepo := mongoRepo.NewShipmentDemandRepository(db)
	packingRepo := mongoRepo.NewPackingStandardRepository(db)
	sequenceRepo := mongoRepo.NewSequenceRepository(db)
	transactor := mongoRepo.NewTransactor(mongoClient)

	outboxRepo := outboxMongo.NewOutboxRepository(db)
	if err := outboxRepo.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Warn("Failed to create outbox indexes")
	}

	outboxPublisher := outbox.NewPublisher(outboxRepo, protectedProducer, logger, m, &outbox.PublisherConfig{
		PollInterval: 1 * time.Second,
		BatchSize:    100,
	})
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	allocationService := application.NewAllocationService(
		lotRepo, shipmentRepo, outboxRepo, eventFactory, m, logger,
	)
	reservationService := application.NewReservationService(
		lotRepo, exportRepo, outboundRepo, packingRepo, sequenceRepo,
		outboxRepo, eventFactory, transactor, m, logger,
	)
	consolidationService := application.NewConsolidationService(
		lotRepo, outboxRepo, eventFactory, transactor, m, logger,
	)

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger))
	router.Use(middleware.MetricsMiddleware(m))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		if err := mongoClient.HealthCheck(ctx); err != nil {
			logger.WithError(err).Warn("Readiness check failed")
			return apperrors.ErrServiceUnavailable("mongodb")
		}
		return nil
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1/export")
	api.Use(middleware.FactoryScope(&middleware.FactoryScopeConfig{
		Required:         config.RequireFactoryScope,
		DefaultFactoryID: config.DefaultFactoryID,
	}))
	{
		api.GET("/shipments/:shipmentId/demand", getDemandHandler(allocationService, logger))
		api.POST("/shipments/:shipmentId/allocation", buildAllocationHandler(allocationService, logger))
		api.POST("/shipments/:shipmentId/reservations", commitReservationHandler(reservationService, logger))
		api.GET("/shipments/:shipmentId/outbound", listOutboundHandler(reservationService, logger))

		api.GET("/lots", listLotsHandler(allocationService, logger))
		api.GET("/lots/availability", availabilityHandler(allocationService, logger))
		api.POST("/lots/consolidation", consolidateHandler(consolidationService, logger))

		api.PATCH("/outbound/:outboundId", updateOutboundHandler(reservationService, logger))
		api.POST("/outbound/:outboundId/reversal", reverseReservationHandler(reservationService, logger))
	}

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr          string
	RequireFactoryScope bool
	DefaultFactoryID    string
	MongoDB             *mongodb.Config
	Kafka               *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr:          getEnv("SERVER_ADDR", ":8010"),
		RequireFactoryScope: getEnv("REQUIRE_FACTORY_SCOPE", "false") == "true",
		DefaultFactoryID:    getEnv("DEFAULT_FACTORY_ID", "default"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "wms_export"),
			ReplicaSet:     getEnv("MONGODB_REPLICA_SET", ""),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
