package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"

	"github.com/tidegram/backend/internal/router"
	"github.com/tidegram/backend/pkg/config"
	"github.com/tidegram/backend/pkg/firebase"
	"github.com/tidegram/backend/pkg/logger"
	"github.com/tidegram/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase only when it is the configured identity provider
	var firebaseApp *firebase.App
	if cfg.AuthProvider == "firebase" {
		firebaseApp, err = firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	if firebaseApp != nil {
		router.SetupRoutes(e, cfg, db.Postgres, db.Mongo, firebaseApp.AuthClient)
	} else {
		router.SetupRoutes(e, cfg, db.Postgres, db.Mongo, nil)
	}

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
