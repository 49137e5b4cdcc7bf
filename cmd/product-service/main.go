package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/inventory-service/internal/config"
	httpAPI "github.com/iyhunko/inventory-service/internal/http"
	"github.com/iyhunko/inventory-service/internal/http/controller"
	"github.com/iyhunko/inventory-service/internal/logger"
	"github.com/iyhunko/inventory-service/internal/metrics"
	"github.com/iyhunko/inventory-service/internal/repository"
	"github.com/iyhunko/inventory-service/internal/repository/memory"
	"github.com/iyhunko/inventory-service/internal/repository/sql"
	"github.com/iyhunko/inventory-service/internal/service"
	sqspkg "github.com/iyhunko/inventory-service/internal/sqs"
	"github.com/iyhunko/inventory-service/internal/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)
	logger.InitJSONLogger(conf.DebugMode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create repositories
	var (
		productRepository repository.ProductRepository
		eventRepository   repository.EventRepository
		transactor        repository.Transactor
	)
	switch conf.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		productRepository, eventRepository, transactor = store.Products(), store.Events(), store
		slog.Warn("using in-memory store, data is lost on restart")
	default:
		db, err := sql.StartDB(ctx, conf.Database)
		handleErr("starting database", err)
		defer db.Close()

		productRepository = sql.NewProductRepository(db)
		eventRepository = sql.NewEventRepository(db)
		transactor = sql.NewTransactionalRepository(db)
	}

	productService := service.NewProductService(productRepository, transactor, validation.New())

	// Publish stored events to SQS only when a queue is configured
	var outboxWorker *service.OutboxWorker
	if conf.EventsEnabled() {
		sqsClient, err := sqspkg.NewClient(ctx, conf.AWS)
		handleErr("creating SQS client", err)

		sqsPublisher := sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)
		outboxWorker = service.NewOutboxWorker(eventRepository, sqsPublisher, conf.Outbox.Interval, conf.Outbox.BatchSize)
		go outboxWorker.Start(ctx)
	} else {
		slog.Info("SQS queue not configured, product events stay pending")
	}

	// Start HTTP server
	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	ctr := controller.New()
	productCtr := controller.NewProductController(productService)
	router := httpAPI.InitRouter(gin.New(), ctr, productCtr)

	httpServer := &http.Server{
		Addr:              ":" + conf.HTTPServer.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("HTTP server starting", slog.String("port", conf.HTTPServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handleErr("listening to HTTP requests", err)
		}
	}()

	metricsServer := metrics.StartMetricsServer(conf.MetricsServer.Port)

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down HTTP server", slog.Any("err", err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down metrics server", slog.Any("err", err))
	}
	if outboxWorker != nil {
		outboxWorker.Stop()
	}
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
