package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/auth"
	"github.com/yukikurage/task-board-api/internal/config"
	"github.com/yukikurage/task-board-api/internal/constants"
	"github.com/yukikurage/task-board-api/internal/database"
	"github.com/yukikurage/task-board-api/internal/handlers"
	"github.com/yukikurage/task-board-api/internal/repository"
	"github.com/yukikurage/task-board-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logrus.New()
	if cfg.GinMode == gin.ReleaseMode {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Open(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close(db)

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Directory cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.WithError(err).Warn("Redis unavailable; directory lookups will go to the database")
	}

	// Identity token verification
	verifier, err := newVerifier(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize token verifier")
	}
	defer verifier.Close()

	// Initialize AI service
	var drafter services.TaskDrafter
	if cfg.OpenAIAPIKey != "" {
		drafter = services.NewAIService(cfg.OpenAIAPIKey)
	}

	users := repository.NewCachedUserRepository(repository.NewUserRepository(db), redisClient, cfg.DirectoryCacheTTL, log)
	boardRepo := repository.NewBoardRepository(db)
	directory := services.NewDirectoryService(users, log)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,    // Redis pool size
		"tcp", // network type
		cfg.RedisAddr(),
		"", // username (empty for default user)
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Redis session store")
	}
	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	handlers.RegisterRoutes(r, handlers.Dependencies{
		Verifier:   verifier,
		Directory:  directory,
		Boards:     services.NewBoardService(boardRepo, log),
		Membership: services.NewMembershipService(boardRepo, directory, log),
		Tasks:      services.NewTaskService(repository.NewTaskRepository(db), drafter, log),
		Log:        log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
}

func newVerifier(cfg *config.Config) (*auth.TokenVerifier, error) {
	if cfg.AuthHMACSecret != "" {
		return auth.NewHMACVerifier([]byte(cfg.AuthHMACSecret), cfg.FirebaseProjectID, ""), nil
	}
	return auth.NewFirebaseVerifier(cfg.JWKSURL, cfg.FirebaseProjectID)
}
