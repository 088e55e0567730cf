package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"lifeboard/api"
	"lifeboard/config"
	"lifeboard/handlers"
	"lifeboard/internal/database"
	"lifeboard/services/decisions"
	"lifeboard/services/habits"
	"lifeboard/services/library"
	"lifeboard/services/metadata"
	"lifeboard/services/moods"
	"lifeboard/services/notes"
	"lifeboard/services/notinterested"
	"lifeboard/services/recommendations"
	"lifeboard/services/tasks"
	"lifeboard/services/users"
	"lifeboard/utils"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 lifeboard Backend Starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("LIFEBOARD_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			// Redirect standard log to both console and file
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Generate a server PIN on first run
	settings.Server.PIN = strings.TrimSpace(settings.Server.PIN)
	if settings.Server.PIN == "" {
		pin, err := utils.GeneratePIN()
		if err != nil {
			log.Fatalf("failed to generate PIN: %v", err)
		}
		settings.Server.PIN = pin
		if err := cfgManager.Save(settings); err != nil {
			log.Fatalf("failed to persist generated PIN: %v", err)
		}
		fmt.Printf("🔑 Generated server PIN: %s\n", pin)
	}

	// Open SQLite store and run migrations
	db, err := database.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Services
	usersSvc, err := users.NewService(settings.Cache.Directory)
	if err != nil {
		log.Fatalf("failed to init users service: %v", err)
	}

	metadataSvc := metadata.NewService(
		settings.Metadata.TMDBAPIKey,
		settings.Metadata.Language,
		settings.Cache.Directory,
		settings.Cache.MetadataTTLHours,
	)
	if !metadataSvc.Configured() {
		log.Printf("[main] TMDB API key not configured; content browsing and recommendations are disabled until one is set")
	}

	librarySvc := library.NewService(db.Connection())
	notInterestedSvc := notinterested.NewService(db.Connection())
	recommendationsSvc := recommendations.NewService(
		metadataSvc,
		librarySvc,
		notInterestedSvc,
		settings.Recommendations.Count,
		settings.Recommendations.BufferMultiplier,
		settings.Recommendations.RatingThreshold,
	)
	tasksSvc := tasks.NewService(db.Connection())
	habitsSvc := habits.NewService(db.Connection())
	moodsSvc := moods.NewService(db.Connection())
	notesSvc := notes.NewService(db.Connection())
	decisionsSvc := decisions.NewService(db.Connection())

	// Handlers
	settingsHandler := handlers.NewSettingsHandler(cfgManager)
	settingsHandler.SetMetadataService(metadataSvc)
	usersHandler := handlers.NewUsersHandler(usersSvc)
	contentHandler := handlers.NewContentHandler(metadataSvc)
	libraryHandler := handlers.NewLibraryHandler(librarySvc, notInterestedSvc, usersSvc)
	recsHandler := handlers.NewRecommendationsHandler(recommendationsSvc, usersSvc)
	tasksHandler := handlers.NewTasksHandler(tasksSvc, usersSvc)
	habitsHandler := handlers.NewHabitsHandler(habitsSvc, usersSvc)
	moodsHandler := handlers.NewMoodsHandler(moodsSvc, usersSvc)
	notesHandler := handlers.NewNotesHandler(notesSvc, usersSvc)
	decisionsHandler := handlers.NewDecisionsHandler(decisionsSvc, usersSvc)

	r := utils.NewRouter()
	api.Register(
		r,
		settingsHandler,
		usersHandler,
		contentHandler,
		libraryHandler,
		recsHandler,
		tasksHandler,
		habitsHandler,
		moodsHandler,
		notesHandler,
		decisionsHandler,
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
