package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planboard/internal/config"
	"planboard/internal/database"
	"planboard/internal/handlers"
	"planboard/internal/jobs"
	"planboard/internal/logging"
	"planboard/internal/middleware"
	"planboard/internal/services"
	"planboard/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Planboard Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	if cfg.MongoURI == "" {
		log.Fatal("❌ MONGODB_URI environment variable is required")
	}
	mongoDB, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close(context.Background())
	log.Println("✅ MongoDB connected successfully")

	if err := mongoDB.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("❌ Failed to ensure indexes: %v", err)
	}
	log.Println("✅ MongoDB indexes ensured")

	// Initialize event publisher (optional - requires Redis)
	eventPublisher, err := services.NewEventPublisher(cfg.RedisURL)
	if err != nil {
		log.Printf("⚠️ Failed to connect to Redis: %v (event publishing disabled)", err)
	} else if eventPublisher == nil {
		log.Println("⚠️ REDIS_URL not set - event publishing disabled")
	} else {
		log.Println("✅ Redis event publisher initialized")
	}

	// Initialize Prometheus metrics
	metrics := services.InitMetrics()
	log.Println("✅ Prometheus metrics initialized")

	// Initialize authentication
	var jwtAuth *auth.LocalJWTAuth
	if cfg.JWTSecret == "" {
		if os.Getenv("ENVIRONMENT") == "production" {
			log.Fatal("❌ CRITICAL SECURITY ERROR: JWT_SECRET is required in production. Generate with: openssl rand -hex 64")
		}
		log.Println("⚠️  JWT_SECRET not set - authentication disabled (development mode)")
	} else {
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT authentication: %v", err)
		}
		log.Printf("✅ JWT authentication initialized (access: %v, refresh: %v)", cfg.AccessTTL, cfg.RefreshTTL)
	}

	// Initialize services
	userService := services.NewUserService(mongoDB, jwtAuth)
	workspaceService := services.NewWorkspaceService(mongoDB)
	projectService := services.NewProjectService(mongoDB, workspaceService)
	listService := services.NewListService(mongoDB, projectService)
	taskService := services.NewTaskService(mongoDB, projectService, eventPublisher, metrics)
	dependencyService := services.NewTaskDependencyService(mongoDB, taskService, projectService, eventPublisher, metrics)
	commentService := services.NewCommentService(mongoDB, taskService)
	checklistService := services.NewChecklistService(mongoDB, taskService)
	timeTrackingService := services.NewTimeTrackingService(mongoDB, taskService)
	log.Println("✅ Core services initialized")

	// Background requirement analysis worker
	analysisWorker := services.NewAnalysisWorker(mongoDB, metrics, cfg.AnalysisQueueSize)
	analysisWorker.Start()
	log.Printf("✅ Analysis worker started (queue size: %d)", cfg.AnalysisQueueSize)

	requirementService := services.NewRequirementService(mongoDB, projectService, analysisWorker, metrics)
	log.Println("✅ Requirement service initialized")

	// Background jobs
	scheduler := jobs.NewScheduler()
	scheduler.Register("invite_expiration", jobs.NewInviteExpirationChecker(workspaceService))
	scheduler.Register("activity_retention", jobs.NewActivityRetentionJob(mongoDB))
	scheduler.Start()
	log.Println("✅ Background job scheduler started")

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Planboard v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    5 * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("planboard")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// CORS configuration with environment-based origins
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(mongoDB)
	authHandler := handlers.NewAuthHandler(userService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService)
	projectHandler := handlers.NewProjectHandler(projectService, listService)
	taskHandler := handlers.NewTaskHandler(taskService, dependencyService, commentService, checklistService, timeTrackingService)
	requirementHandler := handlers.NewRequirementHandler(requirementService)

	// Routes

	// Health check (public)
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")

	// Authentication routes (public except logout/me)
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/refresh", authHandler.Refresh)

	// Everything below requires authentication
	authed := api.Group("", middleware.AuthMiddleware(jwtAuth))
	authed.Post("/auth/logout", authHandler.Logout)
	authed.Get("/auth/me", authHandler.Me)

	// Workspaces
	workspaces := authed.Group("/workspaces")
	workspaces.Post("/", workspaceHandler.Create)
	workspaces.Get("/", workspaceHandler.List)
	workspaces.Get("/:id", workspaceHandler.Get)
	workspaces.Patch("/:id", workspaceHandler.Update)
	workspaces.Delete("/:id", workspaceHandler.Delete)
	workspaces.Get("/:id/members", workspaceHandler.ListMembers)
	workspaces.Patch("/:id/members/:userId", workspaceHandler.UpdateMember)
	workspaces.Delete("/:id/members/:userId", workspaceHandler.RemoveMember)
	workspaces.Post("/:id/invites", workspaceHandler.Invite)
	workspaces.Get("/:id/projects", projectHandler.List)

	// Invites (token-addressed, not workspace-scoped)
	authed.Post("/invites/:token/accept", workspaceHandler.AcceptInvite)
	authed.Post("/invites/:token/decline", workspaceHandler.DeclineInvite)

	// Projects
	projects := authed.Group("/projects")
	projects.Post("/", projectHandler.Create)
	projects.Get("/:id", projectHandler.Get)
	projects.Patch("/:id", projectHandler.Update)
	projects.Delete("/:id", projectHandler.Delete)
	projects.Get("/:id/stats", projectHandler.Stats)
	projects.Get("/:id/lists", projectHandler.Lists)
	projects.Put("/:id/lists/reorder", projectHandler.ReorderLists)

	// Tasks under projects (specific paths before /:id on /tasks)
	projects.Get("/:id/tasks", taskHandler.List)
	projects.Put("/:id/tasks/reorder", taskHandler.Reorder)
	projects.Get("/:id/tasks/ready", taskHandler.Ready)
	projects.Get("/:id/tasks/blocked", taskHandler.Blocked)
	projects.Get("/:id/tasks/overdue", taskHandler.Overdue)
	projects.Get("/:id/tasks/by-assignee/:assigneeId", taskHandler.ByAssignee)
	projects.Get("/:id/tasks/report", taskHandler.Report)

	// Requirements under projects
	projects.Get("/:id/requirements", requirementHandler.List)
	projects.Get("/:id/requirements/coverage", requirementHandler.Coverage)
	projects.Post("/:id/requirements/detect-duplicates", requirementHandler.DetectDuplicates)

	// Lists
	authed.Post("/lists", projectHandler.CreateList)
	authed.Patch("/lists/:id", projectHandler.UpdateList)
	authed.Delete("/lists/:id", projectHandler.DeleteList)

	// Tasks
	tasks := authed.Group("/tasks")
	tasks.Post("/", taskHandler.Create)
	tasks.Post("/bulk-update", taskHandler.BulkUpdate)
	tasks.Get("/:id", taskHandler.Get)
	tasks.Patch("/:id", taskHandler.Update)
	tasks.Delete("/:id", taskHandler.Delete)
	tasks.Post("/:id/move", taskHandler.Move)
	tasks.Post("/:id/archive", taskHandler.Archive)
	tasks.Post("/:id/unarchive", taskHandler.Unarchive)
	tasks.Post("/:id/duplicate", taskHandler.Duplicate)
	tasks.Get("/:id/metrics", taskHandler.Metrics)
	tasks.Get("/:id/activities", taskHandler.Activities)

	// Task dependencies
	tasks.Post("/:id/dependencies", taskHandler.AddDependency)
	tasks.Get("/:id/dependencies", taskHandler.Dependencies)
	tasks.Get("/:id/dependencies/check", taskHandler.CheckCycle)
	tasks.Get("/:id/dependencies/chain", taskHandler.Chain)
	tasks.Delete("/:id/dependencies/:dependsOnId", taskHandler.RemoveDependency)
	authed.Post("/dependencies/bulk-add", taskHandler.BulkAddDependencies)
	authed.Post("/dependencies/bulk-remove", taskHandler.BulkRemoveDependencies)

	// Comments
	tasks.Post("/:id/comments", taskHandler.AddComment)
	tasks.Get("/:id/comments", taskHandler.Comments)
	authed.Patch("/comments/:id", taskHandler.UpdateComment)
	authed.Delete("/comments/:id", taskHandler.DeleteComment)

	// Checklists
	tasks.Post("/:id/checklists", taskHandler.CreateChecklist)
	tasks.Get("/:id/checklists", taskHandler.Checklists)
	checklists := authed.Group("/checklists")
	checklists.Post("/:id/items", taskHandler.AddChecklistItem)
	checklists.Post("/:id/items/:itemId/toggle", taskHandler.ToggleChecklistItem)
	checklists.Delete("/:id/items/:itemId", taskHandler.RemoveChecklistItem)
	checklists.Delete("/:id", taskHandler.DeleteChecklist)

	// Time tracking
	tasks.Post("/:id/time/start", taskHandler.StartTimer)
	tasks.Post("/:id/time/stop", taskHandler.StopTimer)
	tasks.Get("/:id/time", taskHandler.TimeEntries)
	tasks.Get("/:id/time/total", taskHandler.TotalTime)

	// Requirements
	requirements := authed.Group("/requirements")
	requirements.Post("/", requirementHandler.Create)
	requirements.Get("/:id", requirementHandler.Get)
	requirements.Patch("/:id", requirementHandler.Update)
	requirements.Delete("/:id", requirementHandler.Delete)
	requirements.Get("/:id/history", requirementHandler.History)
	requirements.Post("/:id/tasks", requirementHandler.LinkTask)
	requirements.Delete("/:id/tasks/:taskId", requirementHandler.UnlinkTask)
	requirements.Post("/:id/analyze", requirementHandler.Analyze)
	requirements.Post("/:id/generate-tests", requirementHandler.GenerateTests)

	log.Println("✅ Routes registered")

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		scheduler.Stop()
		analysisWorker.Stop()

		if eventPublisher != nil {
			if err := eventPublisher.Close(); err != nil {
				log.Printf("⚠️ Error closing event publisher: %v", err)
			}
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
