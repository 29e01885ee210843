package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rx3lixir/studyhall/internal/auth"
	"github.com/rx3lixir/studyhall/internal/config"
	"github.com/rx3lixir/studyhall/internal/materials"
	"github.com/rx3lixir/studyhall/internal/room"
	"github.com/rx3lixir/studyhall/internal/server"
	"github.com/rx3lixir/studyhall/internal/storage/postgres"
	"github.com/rx3lixir/studyhall/internal/storage/s3"
	"github.com/rx3lixir/studyhall/internal/todo"
	"github.com/rx3lixir/studyhall/internal/user"
	"github.com/rx3lixir/studyhall/internal/websocket"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

const dbTimeout = 10 * time.Second

func main() {
	// Initializing and validating config
	cm, err := config.NewConfigManager("internal/config/config.yaml")
	if err != nil {
		fmt.Printf("Error getting config file: %v\n", err)
		os.Exit(1)
	}
	c := cm.GetConfig()
	if err := c.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initializing logger
	log, err := logger.New(logger.Config{
		Env:       c.GeneralParams.Env,
		AddSource: false,
	})
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("config loaded",
		"env", c.GeneralParams.Env,
		"http_server_address", c.HttpServerParams.GetAddress(),
		"database", c.MainDBParams.Name,
		"bucket", c.S3Params.BucketName,
	)

	// Global context with cancel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database connection
	pool, err := postgres.NewPool(ctx, c.MainDBParams.GetDSN())
	if err != nil {
		log.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	log.Info("database connection established", "db", c.MainDBParams.Name)

	// Object storage for avatars and shared materials
	s3Client, err := s3.NewClient(
		c.S3Params.Endpoint,
		c.S3Params.AccessKeyID,
		c.S3Params.SecretAccessKey,
		c.S3Params.UseSSL,
	)
	if err != nil {
		log.Error("failed to create s3 client", "error", err)
		os.Exit(1)
	}
	if err := s3.EnsureBucket(ctx, s3Client, c.S3Params.BucketName); err != nil {
		log.Error("failed to ensure bucket", "error", err)
		os.Exit(1)
	}

	// Stores
	userStore := user.NewPostgresStore(pool)
	roomStore := room.NewPostgresStore(pool)
	todoStore := todo.NewPostgresStore(pool)
	avatarStore := user.NewAvatarStore(s3Client, c.S3Params.BucketName)
	materialsStore := materials.NewMinioStore(s3Client, c.S3Params.BucketName, log)

	// JWT service
	authService := auth.NewService(
		c.GeneralParams.SecretKey,
		time.Minute*15,
		time.Hour*24*7,
	)

	// WebSocket hubs
	wsManager := websocket.NewManager(websocket.NewRoomRoster(roomStore), log)

	// Handlers
	userHandler := user.NewHandler(userStore, avatarStore, authService, log, dbTimeout)
	roomHandler := room.NewHandler(roomStore, todoStore, materialsStore, wsManager, log)
	todoHandler := todo.NewHandler(todoStore, wsManager, log, dbTimeout)
	materialsHandler := materials.NewHandler(materialsStore, wsManager, log)
	wsHandler := websocket.NewHandler(wsManager, authService, log)

	router := server.NewRouter(server.RouterConfig{
		UserHandler:      userHandler,
		RoomHandler:      roomHandler,
		TodoHandler:      todoHandler,
		MaterialsHandler: materialsHandler,
		WSHandler:        wsHandler,
		AuthService:      authService,
		Log:              log,
	})

	srv := server.New(c.HttpServerParams.GetAddress(), router, log)

	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-serverErrors:
		log.Error("server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		wsManager.Shutdown()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}
}
