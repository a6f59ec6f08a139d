package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adityarama/procurement-engine/internal/api"
	"github.com/adityarama/procurement-engine/internal/application/service"
	"github.com/adityarama/procurement-engine/internal/config"
	"github.com/adityarama/procurement-engine/internal/infrastructure/authz"
	"github.com/adityarama/procurement-engine/internal/infrastructure/persistence/repository"
	"github.com/adityarama/procurement-engine/pkg/database"
	"github.com/adityarama/procurement-engine/pkg/utils"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting procurement workflow engine",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	definitionRepo := repository.NewDefinitionRepository(db, logger)
	instanceRepo := repository.NewInstanceRepository(db, logger)
	stepRepo := repository.NewStepRepository(db, logger)
	caseRepo := repository.NewCaseRepository(db, logger)
	notificationRepo := repository.NewNotificationRepository(db, logger)
	roleMemberRepo := repository.NewRoleMemberRepository(db, logger)

	// Collaborators and services
	permissions := authz.NewRolePermissionChecker(cfg.Auth.Permissions, logger)
	resolver := service.NewAssigneeResolver(roleMemberRepo, logger)

	definitionService := service.NewDefinitionService(definitionRepo, db, permissions, logger)
	instanceService := service.NewInstanceService(definitionRepo, instanceRepo, stepRepo,
		notificationRepo, resolver, db, permissions, logger)
	inboxService := service.NewInboxService(stepRepo, notificationRepo, logger)
	caseService := service.NewCaseService(caseRepo, db, permissions, logger)

	handler := api.NewHandler(definitionService, instanceService, inboxService, caseService, logger)
	router := api.NewRouter(handler, []byte(cfg.Auth.JWTSecret), logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	logger.Info("HTTP server listening", zap.String("addr", server.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}
