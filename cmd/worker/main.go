package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/campusgrid/grievance/internal/config"
	"github.com/campusgrid/grievance/services"
	"github.com/campusgrid/grievance/workers"
)

func main() {
	log.Println("Starting workers...")

	configPath := os.Getenv("GRIEVANCE_CONFIG_PATH")
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if config.App.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable (or config) is required")
	}

	pg, err := sql.Open("postgres", config.App.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	if err := pg.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Set timezone to UTC for consistent time handling
	if _, err := pg.Exec("SET TIME ZONE 'UTC'"); err != nil {
		log.Printf("Failed to set timezone to UTC: %v", err)
	}

	log.Println("  Connected to database successfully")

	opts, err := redis.ParseURL(config.App.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to ping redis: %v", err)
	}

	fcmService, err := services.NewFCMService(pg)
	if err != nil {
		log.Printf("Warning: FCM disabled: %v", err)
	}
	notificationService := services.NewNotificationService(pg, rdb)

	notificationWorker := workers.NewNotificationWorker(pg, rdb, fcmService, notificationService)
	maintenanceWorker := workers.NewMaintenanceWorker(pg)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		notificationWorker.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		notificationWorker.StartSweeper(ctx, 5*time.Minute)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		maintenanceWorker.Start(ctx, time.Hour)
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Println("Workers started successfully. Press Ctrl+C to stop.")
	<-c

	log.Println("Shutting down workers...")
	cancel()
	wg.Wait()
}
