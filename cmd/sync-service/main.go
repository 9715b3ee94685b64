package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/shiftline/shiftline-backend/internal/recon/broadcast"
	"github.com/shiftline/shiftline-backend/internal/recon/client"
	"github.com/shiftline/shiftline-backend/internal/recon/handler"
	"github.com/shiftline/shiftline-backend/internal/recon/service"
	"github.com/shiftline/shiftline-backend/internal/recon/store"
	"github.com/shiftline/shiftline-backend/pkg/config"
	"github.com/shiftline/shiftline-backend/pkg/database"
	"github.com/shiftline/shiftline-backend/pkg/httputil"
	"github.com/shiftline/shiftline-backend/pkg/logger"
	"github.com/shiftline/shiftline-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.Load("sync-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("sync-service", cfg.Server.Environment)
	log.Info().Msg("starting Sync Service")

	instanceID := uuid.New().String()
	log = log.WithInstanceID(instanceID)

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	kv := store.NewKV(db)
	if err := kv.EnsureSchema(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure kv_store schema")
	}
	snapshotStore := store.NewSnapshotStore(kv, instanceID, log)

	// Notification channels: the message bus when available, the shared
	// marker key always. A missing broker degrades to marker-only.
	channels := []broadcast.Channel{
		broadcast.NewMarkerChannel(kv, cfg.Store.FallbackPollInterval, log),
	}

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, notifications degrade to marker polling")
	} else {
		defer rmq.Close()
		bus, err := broadcast.NewBusChannel(rmq, instanceID, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up bus channel, notifications degrade to marker polling")
		} else {
			channels = append([]broadcast.Channel{bus}, channels...)
		}
	}

	notifier := broadcast.New(instanceID, log, channels...)

	// Remote authority client, only when enabled
	var remote service.SyncTransport
	if cfg.Remote.Enabled {
		remote = client.NewSyncClient(&cfg.Remote, log)
	}

	engine := service.NewEngine(snapshotStore, remote, notifier, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := notifier.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start notification channels")
	}
	defer notifier.Close()

	if err := engine.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("engine initialization failed")
	}

	var scheduler *service.PushScheduler
	if cfg.Remote.Enabled {
		scheduler = service.NewPushScheduler(engine, cfg.Remote.PushInterval, log)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	// Initialize handlers
	employeeHandler := handler.NewEmployeeHandler(engine, log)
	attendanceHandler := handler.NewAttendanceHandler(engine, log)
	syncHandler := handler.NewSyncHandler(engine, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "http://localhost:3000" || origin == "http://localhost:5173" {
				return true
			}
			return strings.HasSuffix(origin, ".shiftline.app")
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "sync-service",
			"database": db.Health(r.Context()),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", employeeHandler.List)
			r.Post("/", employeeHandler.Create)
			r.Get("/{id}", employeeHandler.Get)
			r.Put("/{id}", employeeHandler.Update)
			r.Delete("/{id}", employeeHandler.Delete)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Get("/", attendanceHandler.List)
			r.Get("/date/{date}", attendanceHandler.ByDate)
			r.Post("/{employeeID}/clock-in", attendanceHandler.ClockIn)
			r.Post("/{employeeID}/clock-out", attendanceHandler.ClockOut)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", syncHandler.Health)
			r.Get("/data", syncHandler.Data)
			r.Post("/push", syncHandler.Push)
			r.Post("/load", syncHandler.Load)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop the poller and scheduler
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
