package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cmx-713/adaptive-english-writing/internal/config"
	"github.com/cmx-713/adaptive-english-writing/internal/database"
	"github.com/cmx-713/adaptive-english-writing/internal/handler"
	"github.com/cmx-713/adaptive-english-writing/internal/middleware"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
	"github.com/cmx-713/adaptive-english-writing/internal/router"
	"github.com/cmx-713/adaptive-english-writing/internal/service"
	cloud "github.com/cmx-713/adaptive-english-writing/pkg/cloudinary"
	"github.com/cmx-713/adaptive-english-writing/pkg/llm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Student{}, &models.Topic{}, &models.Essay{}, &models.GradeReport{}, &models.DrillSet{}, &models.ActivityLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats not configured, activity events stay local")
	}

	var uploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		cld, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cld
	} else {
		logger.Warn().Msg("cloudinary not configured, photo upload disabled")
	}

	llmClient, err := llm.New(llm.Config{
		Provider:    llm.Provider(cfg.LLMProvider),
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		EmbedModel:  cfg.LLMEmbedModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: float32(cfg.LLMTemperature),
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	var exemplars service.ExemplarSearcher
	if cfg.QdrantHost != "" {
		store, err := service.NewExemplarService(service.ExemplarConfig{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			APIKey:     cfg.QdrantAPIKey,
			UseTLS:     cfg.QdrantUseTLS,
			Collection: cfg.QdrantCollection,
		}, llmClient, logger)
		if err != nil {
			log.Fatalf("failed to connect to qdrant: %v", err)
		}

		bootCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err = store.EnsureCollection(bootCtx)
		cancel()
		if err != nil {
			log.Fatalf("failed to prepare exemplar collection: %v", err)
		}
		exemplars = store
	} else {
		logger.Warn().Msg("qdrant not configured, scaffolds run without exemplars")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	essayRepo := repository.NewEssayRepository(db)
	drillRepo := repository.NewDrillRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	analyticsRepo := repository.NewTeacherAnalyticsRepository(db)

	activityService := service.NewActivityService(activityRepo, natsConn, logger)
	authService := service.NewAuthService(studentRepo, activityService, validate, cfg.JWTSecret, cfg.JWTTTL, cfg.TeacherSignupCode, logger)
	topicService := service.NewTopicService(topicRepo, validate, logger)
	brainstormService := service.NewBrainstormService(llmClient, activityService, validate, logger)
	scaffoldService := service.NewScaffoldService(llmClient, exemplars, activityService, redisClient, cfg.ScaffoldCacheTTL, validate, logger)
	gradingService := service.NewGradingService(essayRepo, topicRepo, llmClient, activityService, redisClient, validate, cfg.RubricText, cfg.LLMModel, logger)
	drillService := service.NewDrillService(drillRepo, essayRepo, llmClient, activityService, validate, logger)
	uploadService := service.NewUploadService(essayRepo, uploader, activityService, cfg.UploadMaxSizeMB, logger)
	progressService := service.NewStudentProgressService(essayRepo, drillRepo, redisClient, cfg.DashboardCacheTTL, logger)
	dashboardService := service.NewTeacherDashboardService(analyticsRepo, studentRepo, essayRepo, activityRepo, redisClient, cfg.DashboardCacheTTL, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	topicHandler := handler.NewTopicHandler(topicService, logger)
	writingHandler := handler.NewWritingHandler(brainstormService, scaffoldService, logger)
	essayHandler := handler.NewEssayHandler(gradingService, uploadService, logger)
	drillHandler := handler.NewDrillHandler(drillService, logger)
	studentDashboardHandler := handler.NewStudentDashboardHandler(progressService, logger)
	teacherDashboardHandler := handler.NewTeacherDashboardHandler(dashboardService, progressService, activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		// The body limit must clear the photo size cap plus multipart overhead.
		BodyLimit: (cfg.UploadMaxSizeMB + 2) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:             authHandler,
		TopicHandler:            topicHandler,
		WritingHandler:          writingHandler,
		EssayHandler:            essayHandler,
		DrillHandler:            drillHandler,
		StudentDashboardHandler: studentDashboardHandler,
		TeacherDashboardHandler: teacherDashboardHandler,
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
		TeacherMiddleware:       middleware.RequireRole(models.RoleTeacher),
		GenerationLimiter:       middleware.RateLimit("generation", 10, time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
