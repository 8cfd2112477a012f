package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"picksheet/api/internal/app"
	"picksheet/api/internal/archive"
	"picksheet/api/internal/assets"
	"picksheet/api/internal/config"
	"picksheet/api/internal/persist"
	"picksheet/api/internal/search"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var stateStore persist.Store
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		log.Printf("Using PostgreSQL for state storage")
		pgStore, err := persist.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.StateKey)
		if err != nil {
			log.Fatalf("postgres connection failed: %v", err)
		}
		stateStore = pgStore
	} else {
		log.Printf("Using Redis for state storage")
		redisStore, err := persist.NewRedisStore(cfg.RedisURL, cfg.StateKey)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		stateStore = redisStore
	}
	defer stateStore.Close()

	saver := persist.NewSaver(stateStore, cfg.SaveDebounce)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient)
	defer searchService.Close()

	archiveService := archive.New(cfg.ArchiveDir)

	var ingestor assets.Ingestor = assets.InlineStore{}
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		minioStore, err := assets.NewMinioStore(ctx, assets.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("object store connection failed: %v", err)
		}
		log.Printf("Using object storage for uploaded assets")
		ingestor = minioStore
	}

	gate, err := app.NewEditorGate(cfg.EditorPassword)
	if err != nil {
		log.Fatalf("editor gate setup failed: %v", err)
	}

	service := app.NewService(stateStore, saver, searchService, archiveService, ingestor, gate)
	if err := service.Bootstrap(ctx); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Picksheet API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if err := service.Shutdown(shutdownCtx); err != nil {
		log.Printf("flush error: %v", err)
	}
}
