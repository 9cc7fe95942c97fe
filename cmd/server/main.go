// Package main is the entry point for the AxisFit posture service HTTP server.
package main

import (
	"log"

	"github.com/axisfit/axisfit-service/internal/config"
	"github.com/axisfit/axisfit-service/internal/database"
	"github.com/axisfit/axisfit-service/internal/monitor"
	"github.com/axisfit/axisfit-service/internal/repository"
	"github.com/axisfit/axisfit-service/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	log.Println("Successfully connected to database")

	// Create repositories
	userRepo := repository.NewPostgresUserRepository(db)
	sessionRepo := repository.NewPostgresSessionRepository(db)

	// Live session manager drives the posture pipeline
	sessions := monitor.NewManager(cfg.Sensor, sessionRepo)

	// Create server dependencies
	deps := &server.Dependencies{
		Config:      cfg,
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Sessions:    sessions,
	}

	// Create and start the server
	srv := server.New(deps)

	log.Printf("Starting server on port %s", cfg.Server.Port)
	if err := srv.Run(":" + cfg.Server.Port); err != nil {
		log.Printf("Failed to start server: %v", err)
		panic(err) // Use panic instead of log.Fatalf to ensure defer runs
	}
}
