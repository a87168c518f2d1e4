package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/St1cky1/tasks-api/internal/api"
	grpcapi "github.com/St1cky1/tasks-api/internal/api/grpc"
	"github.com/St1cky1/tasks-api/internal/api/handlers"
	"github.com/St1cky1/tasks-api/internal/config"
	"github.com/St1cky1/tasks-api/internal/infrastructure/client"
	"github.com/St1cky1/tasks-api/internal/logging"
	"github.com/St1cky1/tasks-api/internal/repository"
	"github.com/St1cky1/tasks-api/internal/usecase"
	"github.com/St1cky1/tasks-api/internal/worker"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("❌ Ошибка конфигурации")
	}

	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// Подключаемся к БД. При ошибке сервис продолжает работать и отвечает ошибкой подключения.
	var (
		taskRepo repository.ITaskRepository
		pinger   grpcapi.Pinger
		db       *client.PostgresClient
	)
	db, err = client.NewPostgresClient(ctx, cfg.DB.URL())
	if err != nil {
		logger.Errorf("Connection failed: %v", err)
		taskRepo = repository.NewUnavailableTaskRepository(err)
		connErr := err
		pinger = grpcapi.PingFunc(func(context.Context) error { return connErr })
	} else {
		defer db.Close()
		taskRepo = repository.NewTaskRepository(db.Pool)
		pinger = db

		if err := db.HealthCheck(ctx); err != nil {
			logger.Errorf("Connection failed: %v", err)
		} else {
			logger.Info("Connected successfully")
		}

		initSchema(ctx, db.Pool, cfg, logger)
	}

	// Аудит через RabbitMQ включается только если задан RABBITMQ_URL
	var publisher usecase.AuditPublisher
	if cfg.RabbitMQURL != "" && db != nil {
		rabbitMQ, err := client.NewRabbitMQClient(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.WithError(err).Error("❌ Ошибка подключения к RabbitMQ, аудит отключен")
		} else {
			defer rabbitMQ.Close()
			publisher = rabbitMQ
			logger.Info("✅ Подключение к RabbitMQ установлено")

			auditWorker := worker.NewAuditWorker(rabbitMQ, repository.NewTaskAuditRepository(db.Pool), logger)
			wg.Add(1)
			go func() {
				defer wg.Done()
				auditWorker.Start(ctx)
			}()
		}
	}

	taskService := usecase.NewTaskService(taskRepo, publisher, logger)
	taskHandler := handlers.NewTaskHandler(taskService, logger)

	// gRPC health + gateway для /healthz
	healthServer := health.NewServer()
	monitor := grpcapi.NewHealthMonitor(healthServer, pinger, cfg.HealthInterval, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Start(ctx)
	}()

	grpcServer := grpcapi.NewServer(healthServer, logger)
	go func() {
		if err := grpcServer.Start(cfg.GRPCPort); err != nil {
			logger.WithError(err).Error("❌ gRPC server error")
		}
	}()

	routerCfg := api.RouterConfig{AllowedOrigins: cfg.AllowedOrigins}
	healthConn, err := grpcapi.DialHealth(net.JoinHostPort("localhost", cfg.GRPCPort))
	if err != nil {
		logger.WithError(err).Error("❌ gRPC Gateway недоступен, /healthz отключен")
	} else {
		defer healthConn.Close()
		routerCfg.Healthz = grpcapi.NewGatewayHandler(healthConn)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(taskHandler, routerCfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"http":            cfg.HTTPAddr,
			"grpc":            cfg.GRPCPort,
			"allowed_origins": cfg.AllowedOrigins,
		}).Info("✅ Сервер запущен")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("❌ HTTP server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Завершение работы...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("❌ Ошибка остановки HTTP сервера")
	}
	grpcServer.Stop()

	wg.Wait()
	logger.Info("✅ Приложение завершено корректно")
}

// initSchema создает таблицу tasks и применяет миграции аудита. Ошибки не останавливают запуск.
func initSchema(ctx context.Context, db repository.Execer, cfg config.Config, logger logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		logger.Errorf("Error creating table failed: %v", err)
	} else {
		logger.Info("Task 'table creation' successfull")
	}

	if cfg.RabbitMQURL == "" {
		return
	}
	if err := repository.RunMigrations(cfg.DB.URL()); err != nil {
		logger.WithError(err).Error("❌ Ошибка миграций")
		return
	}
	logger.Info("✅ Миграции выполнены успешно")
}
