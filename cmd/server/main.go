package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/shapelab/internal/auth"
	"github.com/inamate/shapelab/internal/collab"
	"github.com/inamate/shapelab/internal/config"
	"github.com/inamate/shapelab/internal/engine"
	"github.com/inamate/shapelab/internal/export"
	mw "github.com/inamate/shapelab/internal/middleware"
	"github.com/inamate/shapelab/internal/raster"
	"github.com/inamate/shapelab/internal/studio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	background, err := raster.ParseBackground(cfg.Background)
	if err != nil {
		slog.Error("parse background", "error", err, "background", cfg.Background)
		os.Exit(1)
	}
	rasterOpts := raster.Options{Supersample: cfg.Supersample, Background: background}

	eng, err := engine.NewEngine(engine.Options{
		Width:  cfg.CanvasWidth,
		Height: cfg.CanvasHeight,
		Pipeline: engine.PipelineConfig{
			Is3D:            cfg.Is3D(),
			Lit:             cfg.Lit,
			ZNear:           cfg.ZNear,
			ZFar:            cfg.ZFar,
			CirclePrecision: cfg.CirclePrecision,
		},
		AnimationInterval: cfg.AnimationInterval,
		Backend:           raster.NewBackend(rasterOpts),
	})
	if err != nil {
		slog.Error("create engine", "error", err)
		os.Exit(1)
	}
	if err := eng.SetFieldOfView(cfg.FieldOfView); err != nil {
		slog.Error("set field of view", "error", err)
		os.Exit(1)
	}
	if cfg.SampleScene {
		if err := eng.LoadSample(); err != nil {
			slog.Error("load sample scene", "error", err)
			os.Exit(1)
		}
	}

	authService := auth.NewService(cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	hub := collab.NewHub(collab.NewSceneState(eng))
	go hub.Run(ctx)

	studioHandler := studio.NewHandler(eng)
	exportHandler := export.NewHandler(eng, rasterOpts)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Session routes (public)
	r.HandleFunc("/session", authHandler.StartSession).Methods("POST")
	r.Handle("/session/me", authService.AuthMiddleware(http.HandlerFunc(authHandler.Me))).Methods("GET")

	// Scene reads and exports (public)
	studioHandler.RegisterReads(r)
	r.HandleFunc("/export/frame.png", exportHandler.FramePNG).Methods("GET")
	r.HandleFunc("/export/loop.gif", exportHandler.LoopGIF).Methods("GET")

	// WebSocket endpoint, authenticated by ?token=
	r.HandleFunc("/ws", hub.ServeWS(authService, cfg.OriginPatterns()))

	// Protected scene mutations
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)
	studioHandler.RegisterMutations(api)

	// CORS sits outside the router so preflight requests are answered before
	// route and method matching.
	handler := mw.CORS(cfg.Origins())(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		eng.StopAnimation()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "mode", cfg.Mode, "canvas", fmt.Sprintf("%dx%d", cfg.CanvasWidth, cfg.CanvasHeight))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
