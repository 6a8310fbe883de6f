package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"veestributes/cache"
	"veestributes/config"
	"veestributes/core/auth"
	"veestributes/core/distribution"
	"veestributes/core/metadata"
	"veestributes/core/notify"
	"veestributes/core/task"
	"veestributes/db"
	"veestributes/logger"
	"veestributes/repository"
	"veestributes/storage"
)

// Start initializes all subsystems and runs the HTTP server until a
// shutdown signal arrives.
func Start() {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	auth.Init(cfg.JWTSecret, cfg.JWTExpiry)

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseDB()

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database with GORM: %v", err)
	}
	defer db.CloseGormDB()

	// Connect to Redis
	if err := cache.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.CloseRedis()

	// Initialize schema
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := db.MigrateDistributionModels(); err != nil {
		log.Fatalf("Failed to migrate distribution models: %v", err)
	}

	// Object storage is optional; without it processed files stay on
	// local disk.
	var store *storage.Store
	if cfg.MinioAccessKey != "" {
		var err error
		store, err = storage.NewStore(cfg)
		if err != nil {
			logger.Warn("MinIO unavailable, serving files from local disk", logger.ErrorField(err))
			store = nil
		}
	}

	ensureDirExists(cfg.UploadDir)
	ensureDirExists(cfg.AudioUploadDir)
	ensureDirExists(cfg.ArtworkDir)
	ensureDirExists(cfg.ScratchDir)

	userRepo := repository.NewMySQLUserRepository(db.DB)
	fileRepo := repository.NewMySQLFileRepository(db.DB)
	releaseRepo := repository.NewMySQLReleaseRepository(db.DB, fileRepo)
	platformRepo := repository.NewGormPlatformRepository(db.GormDB)
	attemptRepo := repository.NewGormDistributionRepository(db.GormDB)

	notifier := notify.NewService(cfg)
	machine := distribution.NewMachine(
		releaseRepo, platformRepo, attemptRepo, userRepo,
		distribution.NewTemplateSubmitter(), notifier, cfg.DistributeTimeout)

	queue := task.NewQueue(cfg.WorkerCount, task.RedisReporter{})
	var uploads task.ObjectStore
	if store != nil {
		uploads = store
	}
	processor := task.NewProcessor(queue, fileRepo, metadata.NewExtractor(),
		&metadata.ArtworkProcessor{MaxBytes: cfg.ArtworkMaxBytes}, machine, uploads)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)

	janitor := &task.Janitor{
		ScratchDir:    cfg.ScratchDir,
		ScratchMaxAge: cfg.ScratchMaxAge,
		UploadDirs:    []string{cfg.AudioUploadDir, cfg.ArtworkDir},
		UploadMaxAge:  cfg.UploadStaleMaxAge,
		Interval:      cfg.CleanupInterval,
	}
	go janitor.Run(ctx)

	apiHandler := NewAPIHandler(userRepo, releaseRepo, fileRepo, platformRepo, attemptRepo, processor, store, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Auth endpoints
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// Release endpoints
	router.HandleFunc("/api/releases", apiHandler.AuthMiddleware(apiHandler.CreateReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases", apiHandler.AuthMiddleware(apiHandler.ListReleasesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/releases/{id}", apiHandler.AuthMiddleware(apiHandler.GetReleaseHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/releases/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateReleaseHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/releases/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteReleaseHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/releases/{id}/files", apiHandler.AuthMiddleware(apiHandler.UploadFileHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/files/{fileId}", apiHandler.AuthMiddleware(apiHandler.DeleteFileHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/releases/{id}/distribute", apiHandler.AuthMiddleware(apiHandler.DistributeReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/distribution", apiHandler.AuthMiddleware(apiHandler.DistributionStatusHandler)).Methods(http.MethodGet)

	// Platform catalog
	router.HandleFunc("/api/platforms", apiHandler.AuthMiddleware(apiHandler.ListPlatformsHandler)).Methods(http.MethodGet)

	// Job status: REST polling plus a websocket stream
	router.HandleFunc("/api/jobs/{id}", apiHandler.AuthMiddleware(apiHandler.JobStatusHandler)).Methods(http.MethodGet)
	router.HandleFunc("/ws/jobs/{id}", apiHandler.JobProgressHandler)

	router.HandleFunc("/api/health", apiHandler.HealthHandler).Methods(http.MethodGet)

	// Uploaded files served from local disk
	uploadsFileServer := http.FileServer(http.Dir(cfg.UploadDir))
	router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", uploadsFileServer))

	// Optional drop-folder ingestion
	if cfg.WatchUploads {
		watcher := task.NewWatcher(cfg.AudioUploadDir, func(path string) {
			jobID, err := processor.EnqueuePendingAudioFile(context.Background(), path)
			if err != nil {
				logger.Error("Failed to enqueue dropped file", logger.String("path", path), logger.ErrorField(err))
				return
			}
			if jobID != "" {
				logger.Info("Enqueued dropped file for processing",
					logger.String("path", path), logger.String("jobId", jobID))
			}
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("Upload watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	// Stop accepting jobs and drain what is already queued.
	queue.Stop()
	cancel()

	logger.Info("Server stopped")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Creating directory: %s", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", path, err)
		}
	} else if err != nil {
		log.Fatalf("Failed to check directory %s: %v", path, err)
	}
}
