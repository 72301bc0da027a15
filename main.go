package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sirrryasir/edoskill360-sub000/internal/api"
	"github.com/sirrryasir/edoskill360-sub000/internal/cache"
	"github.com/sirrryasir/edoskill360-sub000/internal/config"
	"github.com/sirrryasir/edoskill360-sub000/internal/db"
	"github.com/sirrryasir/edoskill360-sub000/internal/email"
	"github.com/sirrryasir/edoskill360-sub000/internal/services"
	"github.com/sirrryasir/edoskill360-sub000/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, mongoDb, err := db.Connect(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Disconnect(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()
	if err := db.EnsureIndexes(startupCtx, mongoDb); err != nil {
		log.Fatalf("Failed to ensure database indexes: %v", err)
	}

	redisClient, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.Disconnect(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	// Seed the skill catalog so a fresh deployment has something to claim.
	skillService := services.NewSkillService(mongoDb)
	if err := skillService.Seed(startupCtx, services.DefaultSkillCatalog()); err != nil {
		log.Printf("Warning: failed to seed skill catalog: %v", err)
	}

	var emailSender email.Sender
	if os.Getenv("MOCK_SERVICES") == "true" {
		log.Println("MOCK_SERVICES enabled: storing notifications in Redis.")
		emailSender = email.NewRedisSender(redisClient, cfg)
	} else {
		emailSender = email.NewSMTPSender(cfg)
	}

	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()
	notifier := tasks.NewQueueNotifier(taskClient)

	userService := services.NewUserService(mongoDb)
	taskProcessor := tasks.NewTaskProcessor(cfg, emailSender, userService)

	var wg sync.WaitGroup
	var apiSrv *http.Server
	var taskSrv *asynq.Server

	fmt.Printf("Starting application in '%s' mode...\n", cfg.RunMode)

	apiMode := func() {
		router := api.SetupRouter(cfg, mongoDb, notifier)
		apiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("API listening on :%s\n", cfg.ApiPort)
			if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("API ListenAndServe error: %v", err)
			}
			fmt.Println("API server stopped.")
		}()
	}

	bgMode := func() {
		fmt.Println("Starting background worker...")
		taskSrv = tasks.SetupServer(redisClient, taskProcessor, true)
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatalf("Invalid run mode specified: %s.", cfg.RunMode)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if apiSrv != nil {
		if err := apiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}
	if taskSrv != nil {
		taskSrv.Shutdown()
	}

	wg.Wait()
	fmt.Println("Shutdown complete.")
}
