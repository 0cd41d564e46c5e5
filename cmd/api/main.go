package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/tracklane/tracklane-be/internal/core/activity"
	"github.com/tracklane/tracklane-be/internal/core/automation"
	"github.com/tracklane/tracklane-be/internal/core/jobs"
	"github.com/tracklane/tracklane-be/internal/core/notification"
	"github.com/tracklane/tracklane-be/internal/core/outreach"
	"github.com/tracklane/tracklane-be/internal/core/research"
	"github.com/tracklane/tracklane-be/internal/modules/crm/handlers"
	"github.com/tracklane/tracklane-be/internal/modules/crm/repositories"
	"github.com/tracklane/tracklane-be/internal/modules/crm/services"
	"github.com/tracklane/tracklane-be/internal/shared/config"
	"github.com/tracklane/tracklane-be/internal/shared/database"
	"github.com/tracklane/tracklane-be/internal/shared/utils"
)

// @title Tracklane API
// @version 1.0
// @description CRM automation engine API
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	// Load config
	cfg := config.LoadConfig()
	utils.InitLogger()
	log.Printf("🚀 Starting api on port %s", cfg.Port)

	// Init database
	db := database.NewDB(cfg.DatabaseURL)
	defer db.Close()

	// Init repositories (use GORM instance)
	automationRepo := repositories.NewAutomationRepo(db.GORM)
	entityRepo := repositories.NewEntityRepo(db.GORM)
	timeQueryRepo := repositories.NewTimeQueryRepo(db.GORM)

	// Init core services
	activityService := activity.NewService(db.GORM)
	notificationService := notification.NewService(db.GORM)
	outreachService := outreach.NewService(db.GORM)
	jobQueue := jobs.NewQueue(db.GORM)
	webhookClient := automation.NewWebhookClient()

	// Init the automation engine
	guard := automation.NewLoopGuard(
		time.Duration(cfg.CooldownSeconds)*time.Second,
		cfg.MaxChainDepth,
	)
	executor := automation.NewActionExecutor(db.GORM, notificationService, outreachService, activityService, jobQueue, webhookClient)
	automationService := services.NewAutomationService(automationRepo, entityRepo, executor, guard)
	// Entity-mutating actions re-enter the dispatcher synchronously so the
	// chain-depth guard sees nested events
	executor.SetEmitter(func(event automation.Event) {
		automationService.ProcessEvent(context.Background(), event)
	})

	timeTriggerService := services.NewTimeTriggerService(automationRepo, timeQueryRepo, automationService)

	// Background worker for research jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := jobs.NewWorker(jobQueue, jobs.DefaultWorkerConfig())
	if cfg.OpenAIKey != "" {
		worker.RegisterHandler(research.NewHandler(cfg.OpenAIKey, activityService))
		if err := worker.Start(ctx); err != nil {
			log.Fatalf("❌ Failed to start job worker: %v", err)
		}
		defer worker.Stop()
	} else {
		log.Println("⚠️  OPENAI_API_KEY not set, research jobs will stay queued")
	}

	// Cron-driven time-trigger poll
	scheduler := automation.NewScheduler()
	err := scheduler.AddJob(cfg.TimeTriggerCron, func() {
		if _, err := timeTriggerService.ProcessTimeTriggers(context.Background(), cfg.TimeTriggerMax); err != nil {
			log.Printf("⚠️ Time-trigger poll failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("❌ Failed to schedule time-trigger poll: %v", err)
	}
	// Nightly cleanup of finished jobs
	err = scheduler.AddJob("0 0 3 * * *", func() {
		deleted, err := jobQueue.DeleteOldJobs(context.Background(), time.Duration(cfg.JobRetentionDays)*24*time.Hour)
		if err != nil {
			log.Printf("⚠️ Job cleanup failed: %v", err)
			return
		}
		if deleted > 0 {
			log.Printf("🧹 Job cleanup removed %d finished jobs", deleted)
		}
	})
	if err != nil {
		log.Fatalf("❌ Failed to schedule job cleanup: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Init handlers
	automationHandler := handlers.NewAutomationHandler(automationService, timeTriggerService, cfg.TimeTriggerMax)
	jobHandler := handlers.NewJobHandler(jobQueue)

	// Init Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Tracklane API",
	})

	// Middleware
	app.Use(cors.New())
	app.Use(utils.RequestLogger())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Automation and job admin routes
	automationHandler.RegisterRoutes(app)
	jobHandler.RegisterRoutes(app)

	// Start server
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")
	if err := app.Shutdown(); err != nil {
		log.Printf("⚠️ Server shutdown error: %v", err)
	}
	log.Println("✅ Server stopped")
}
