package router

import (
	"context"
	"log"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/tidegram/backend/internal/handlers"
	"github.com/tidegram/backend/internal/identity"
	"github.com/tidegram/backend/internal/middleware"
	"github.com/tidegram/backend/internal/models"
	"github.com/tidegram/backend/internal/realtime"
	"github.com/tidegram/backend/internal/repositories"
	"github.com/tidegram/backend/pkg/config"
	"github.com/tidegram/backend/pkg/logger"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// firebaseAuthClient may be nil when AUTH_PROVIDER=jwt.
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	messageRepo := repositories.NewMongoMessageRepository(mgClient.Database(cfg.MongoDatabase))
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := messageRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create message indexes: %v", err)
	}
	log.Println("MongoDB message indexes ensured.")

	// --- Identity verifier ---
	var verifier identity.Verifier
	if cfg.AuthProvider == "firebase" && firebaseAuthClient != nil {
		verifier = identity.NewFirebaseVerifier(firebaseAuthClient, userRepo)
		log.Println("Firebase identity verifier configured.")
	} else {
		verifier = identity.NewJWTVerifier(cfg.JWTSecret)
		log.Println("JWT identity verifier configured.")
	}

	// --- Realtime engine ---
	presence := realtime.NewPresenceRegistry()
	hub := realtime.NewHub(presence, cfg.HeartbeatInterval, logger.Log)
	messageRouter := realtime.NewMessageRouter(messageRepo, userRepo, hub, cfg.ActivityBroadcast, logger.Log)
	hub.SetSendHandler(messageRouter)
	notifier := realtime.NewNotifier(notificationRepo, userRepo, hub, logger.Log)
	log.Println("Realtime hub and message router configured.")

	// Connection handshake (authenticates inside the upgrade, not via the
	// REST middleware)
	wsHandler := handlers.NewWSHandler(hub, verifier)
	wsHandler.RegisterWSRoutes(e)
	log.Println("WebSocket route configured.")

	// --- Protected routes (require authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(verifier))
	log.Println("Authentication middleware applied to /api/v1 group.")

	// Chat routes
	chatHandler := handlers.NewChatHandler(messageRepo, userRepo)
	chatHandler.RegisterChatRoutes(api)
	log.Println("Chat routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo, notifier)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Presence routes
	presenceHandler := handlers.NewPresenceHandler(presence)
	presenceHandler.RegisterPresenceRoutes(api)
	log.Println("Presence routes configured.")

	log.Println("All routes configured.")
}
