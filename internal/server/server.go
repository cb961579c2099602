package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tasktracker/internal/config"
	"tasktracker/internal/handler"
	"tasktracker/internal/middleware"
	"tasktracker/internal/model"
	"tasktracker/internal/repository"
	"tasktracker/internal/service"
	"tasktracker/internal/ws"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Log    *logrus.Logger
}

func Init(cfg *config.Config) (*Server, error) {
	log := newLogger(cfg.LogLevel)

	// Setup GORM
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Task{}, &model.UserTask{}); err != nil {
		return nil, fmt.Errorf("❌ failed to migrate schema: %w", err)
	}
	log.Info("✅ Connected to database")

	// Setup Gin
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	// Shared services: one gateway over the DB, one broadcast manager for
	// the whole process lifetime.
	gateway := repository.NewGateway(db)
	manager := ws.NewManager(log)

	tokenTTL := time.Duration(cfg.JWTExpiryMinutes) * time.Minute
	userService := service.NewUserService(gateway, cfg.JWTSecret, tokenTTL)
	taskService := service.NewTaskService(gateway, manager, log)

	userHandler := handler.NewUserHandler(userService)
	taskHandler := handler.NewTaskHandler(taskService)
	wsHandler := handler.NewWSHandler(manager, log)

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/ws/tasks", wsHandler.Subscribe)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// User routes
		authorized.GET("/users", middleware.RequireRoles(model.RoleAdmin), userHandler.GetAll)
		authorized.GET("/users/:user_id", middleware.RequireRoles(model.RoleAdmin), userHandler.GetByID)
		authorized.PATCH("/users/:user_id", middleware.RequireRoles(model.RoleAdmin), userHandler.Update)
		authorized.DELETE("/users/:user_id", middleware.RequireRoles(model.RoleAdmin), userHandler.Delete)

		// Task routes
		authorized.GET("/tasks", middleware.RequireRoles(model.RoleAdmin, model.RoleUser), taskHandler.GetAll)
		authorized.POST("/tasks", middleware.RequireRoles(model.RoleAdmin), taskHandler.Create)
		authorized.GET("/tasks/:task_id", middleware.RequireRoles(model.RoleAdmin), taskHandler.GetByID)
		authorized.PATCH("/tasks/:task_id", middleware.RequireRoles(model.RoleAdmin), taskHandler.Update)
		authorized.DELETE("/tasks/:task_id", middleware.RequireRoles(model.RoleAdmin), taskHandler.Delete)
		authorized.POST("/tasks/:task_id/assign", middleware.RequireRoles(model.RoleAdmin), taskHandler.AssignUser)
		authorized.DELETE("/tasks/:task_id/assign", middleware.RequireRoles(model.RoleAdmin), taskHandler.UnassignUser)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
		Log:    log,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		s.Log.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Log.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Log.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	s.Log.Info("✅ Server exited properly")
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}
