package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"pairlock/config"
	"pairlock/internal/crypto"
	"pairlock/internal/directory"
	"pairlock/internal/domain/message"
	"pairlock/internal/domain/user"
	"pairlock/internal/handler"
	"pairlock/internal/middleware"
	pairlockredis "pairlock/internal/redis"
	"pairlock/internal/repository"
	"pairlock/internal/services"
	"pairlock/internal/storage"
	"pairlock/pkg/database"
	"pairlock/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == "release" {
		logMode = logger.ProductionMode
	}
	appLog := logger.New(logMode)
	logger.SetGlobalLogger(appLog)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&user.User{},
		&user.Friendship{},
		&message.Message{},
		&message.MessageReceipt{},
		&message.MessageUserState{},
	); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redisClient := pairlockredis.NewClient(pairlockredis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	presence := pairlockredis.NewPresenceStore(redisClient, 5*time.Minute)

	blobs, err := buildBlobStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	messageRepo := repository.NewMessageRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	dir := directory.NewService(friendshipRepo, presence)

	chatService := services.NewChatService(
		messageRepo,
		crypto.NewKeyProvider(cfg.KDFIterations),
		crypto.NewCodec(),
		blobs,
		dir,
		services.ChatConfig{
			MaxTextLength: cfg.MaxTextLength,
			MaxFileBytes:  cfg.MaxFileBytes,
			PageLimit:     cfg.PageLimit,
			OpTimeout:     time.Duration(cfg.StorageTimeout) * time.Second,
		},
		appLog,
	)

	if cfg.AppMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(appLog))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	chat := r.Group("/chat")
	chat.Use(middleware.AuthMiddleware([]byte(cfg.JWTSecret)))
	chat.Use(presenceTouch(presence))
	handler.NewChatHandler(chatService).RegisterRoutes(chat)

	appLog.Infof("Starting server on port %s", cfg.AppPort)
	if err := r.Run(fmt.Sprintf(":%s", cfg.AppPort)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func buildBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	if cfg.StorageDriver == "s3" {
		return storage.NewS3Store(context.Background(), storage.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
	}
	return storage.NewDiskStore(cfg.UploadDir)
}

// presenceTouch refreshes the caller's lastSeen on every authenticated
// request; failures only degrade the presence shown to friends.
func presenceTouch(presence *pairlockredis.PresenceStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := services.UserIDFromContext(c.Request.Context()); ok {
			_ = presence.Touch(c.Request.Context(), userID.String())
		}
		c.Next()
	}
}
