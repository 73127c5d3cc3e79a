package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/voice-screener/internal/bridge"
	"alfredoptarigan/voice-screener/internal/clock"
	"alfredoptarigan/voice-screener/internal/config"
	"alfredoptarigan/voice-screener/internal/handlers"
	"alfredoptarigan/voice-screener/internal/interview"
	"alfredoptarigan/voice-screener/internal/observe"
	"alfredoptarigan/voice-screener/internal/repositories"
	"alfredoptarigan/voice-screener/internal/script"
	"alfredoptarigan/voice-screener/internal/services"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Metrics
	var metrics *observe.Metrics
	shutdownMetrics := func(context.Context) error { return nil }
	if cfg.Metrics.Enabled {
		mp, shutdown, err := observe.InitProvider("voice-screener", version)
		if err != nil {
			log.Fatalf("❌ Failed to initialize metrics: %v", err)
		}
		if metrics, err = observe.NewMetrics(mp); err != nil {
			log.Fatalf("❌ Failed to create metric instruments: %v", err)
		}
		shutdownMetrics = shutdown
		log.Println("✅ Metrics initialized")
	}

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	docRepo := repositories.NewDocumentRepository(db)
	applicantRepo := repositories.NewApplicantRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Storage
	storageService, err := services.NewStorageService(cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Failed to initialize storage: %v", err)
	}
	if err := storageService.EnsureReady(ctx); err != nil {
		log.Fatalf("❌ Failed to prepare storage: %v", err)
	}
	log.Printf("✅ Storage ready (%s)\n", cfg.Storage.Driver)

	// Gemini
	geminiService, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Worker.RetryInitialDelay)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	// Qdrant question bank. Analysis still works without it.
	var questionBank services.QuestionBank
	if bank, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection); err != nil {
		log.Printf("⚠️  Question bank disabled: %v\n", err)
	} else if err := bank.InitCollection(ctx); err != nil {
		log.Printf("⚠️  Question bank disabled: %v\n", err)
		_ = bank.Close()
	} else {
		questionBank = bank
		defer bank.Close()
		log.Println("✅ Qdrant initialized successfully")
	}

	analyzer := services.NewAnalyzerService(
		geminiService,
		questionBank,
		services.NewPromptBuilder(3, 2),
		cfg.Worker.RetryMaxAttempts,
	)
	pool := services.NewAnalysisPool(analyzer, metrics, cfg.Worker.Concurrency)
	pool.Start(ctx)

	documentService := services.NewDocumentService(
		docRepo,
		storageService,
		services.NewPDFParserService(60000),
		pool,
		cfg.Storage.MaxFileSize,
	)

	// Interview engine
	interviewScript, err := script.Load(cfg.Interview.ScriptPath)
	if err != nil {
		log.Fatalf("❌ Failed to load interview script: %v", err)
	}
	log.Printf("✅ Interview script loaded (%d entries)\n", interviewScript.Len())

	backend := services.NewBackendClient(cfg.Interview.BackendURL, cfg.Interview.UploadTimeout)
	registry := interview.NewRegistry(ctx, interview.Options{
		Countdown:        cfg.Interview.Countdown,
		WatchdogInterval: cfg.Interview.WatchdogInterval,
		RestartDelay:     cfg.Interview.RestartDelay,
		MaxRestarts:      cfg.Interview.MaxRestarts,
		AnalysisDelay:    cfg.Interview.AnalysisDelay,
		ClosingDelay:     cfg.Interview.ClosingDelay,
		RedirectSeconds:  cfg.Interview.RedirectSeconds,
		RedirectURL:      cfg.Interview.RedirectURL,
		UploadTimeout:    cfg.Interview.UploadTimeout,
	})
	hub := bridge.NewHub(256, time.Minute)

	// Handlers
	documentHandler := handlers.NewDocumentHandler(documentService, cfg.Storage.MaxFileSize)
	applicantHandler := handlers.NewApplicantHandler(applicantRepo)
	sessionHandler := handlers.NewSessionHandler(registry, hub, handlers.SessionDeps{
		Script:     interviewScript,
		Uploader:   backend,
		Applicants: backend,
		Clock:      clock.Real(),
		Metrics:    metrics,
	}, cfg.Storage.MaxFileSize)
	log.Println("✅ Handlers initialized")

	app := fiber.New(fiber.Config{
		AppName:     "Voice Screener API",
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: session event streams stay open for the whole
		// interview.
		IdleTimeout:  2 * time.Minute,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Last-Event-ID",
		ExposeHeaders: "Content-Type",
	}))

	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}
	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "local" {
		app.Static("/files", cfg.Storage.UploadPath)
	}

	api := app.Group("/api/v1")
	api.Get("/health", handlers.HandleHealth(registry.Len))
	api.Post("/documents/upload", documentHandler.HandleUpload)
	api.Get("/documents", documentHandler.HandleList)
	api.Get("/documents/:id", documentHandler.HandleGet)
	api.Post("/applicants", applicantHandler.HandleCreate)
	api.Get("/applicants/:sessionId", applicantHandler.HandleGet)
	api.Post("/applicants/:sessionId/responses", applicantHandler.HandleResponses)
	sessionHandler.Register(api)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Voice Screener API",
			"version": version,
			"endpoints": []string{
				"GET /api/v1/health",
				"POST /api/v1/documents/upload",
				"POST /api/v1/applicants",
				"POST /api/v1/sessions",
				"GET /api/v1/sessions/:id/events",
			},
		})
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("🚀 Server starting on %s\n", addr)
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("🛑 Shutting down server...")

		registry.CloseAll()
		hub.CloseAll()
		pool.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
		return shutdownMetrics(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("❌ %v", err)
	}
	log.Println("✅ Server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
