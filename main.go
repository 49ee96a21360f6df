package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"academy-reward-system/handlers"
	"academy-reward-system/middleware"
	"academy-reward-system/models"
	"academy-reward-system/services"
	"academy-reward-system/utils"
	"academy-reward-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := utils.LoadConfig()

	app := fiber.New()

	// Only Gateway-forwarded requests are accepted.
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Academy{},
		&models.VerificationTask{},
		&models.UserVerification{},
		&models.Point{},
		&models.Raffle{},
		&models.CharacterLevel{},
		&models.TwitterAccount{},
		&models.Notification{},
		&models.QuizQuestion{},
		&models.QuizChoice{},
		&models.UserQuizAnswer{},
		&models.TaskFeedback{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	seedCharacterLevels(db)

	twitterClient := services.NewTwitterClient(cfg.TwitterBaseURL, cfg.TwitterClientID, cfg.TwitterClientSecret)
	tokenManager := services.NewTokenManager(db, twitterClient)
	verificationService := services.NewVerificationService(db, twitterClient, tokenManager)

	levelService := services.NewLevelService(db)
	rewardService := services.NewRewardService(db, levelService)
	levelService.Reward = rewardService

	taskService := services.NewTaskService(db, verificationService, rewardService)
	quizService := services.NewQuizService(db, rewardService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatchWorker := workers.NewNotificationDispatchWorker(
		db, cfg.NotificationServiceURL, cfg.NotificationServicePath, cfg.ServiceToken)
	dispatchWorker.Start(ctx)

	rewardService.StartWeeklyRollover()

	handlers.SetupTaskRoutes(app, taskService, rewardService)
	handlers.SetupQuizRoutes(app, quizService)
	handlers.SetupUserRoutes(app, rewardService, levelService, tokenManager)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.ListenAddr)
	log.Println("✅ Notification dispatch worker running")
	log.Println("✅ Weekly point rollover scheduled")

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}

// seedCharacterLevels upserts the default tier table by name so a fresh
// deployment levels users immediately; existing tiers are left untouched.
func seedCharacterLevels(db *gorm.DB) {
	for _, tier := range models.DefaultCharacterLevels {
		t := tier
		t.ID = uuid.NewString()
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&t).Error; err != nil {
			log.Printf("⚠️  Failed to seed character level %s: %v", t.Name, err)
		}
	}
}
