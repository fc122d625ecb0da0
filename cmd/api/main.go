package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/abduss/imagemeta/internal/analysis"
	"github.com/abduss/imagemeta/internal/archive"
	"github.com/abduss/imagemeta/internal/config"
	"github.com/abduss/imagemeta/internal/logger"
	"github.com/abduss/imagemeta/internal/metadata"
	"github.com/abduss/imagemeta/internal/server"
	"github.com/abduss/imagemeta/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logg, err := logger.Init()
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logg.Sync()

	cfg, err := config.Load()
	if err != nil {
		logg.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var minioClient *minio.Client
	if cfg.MinIO.Enabled {
		minioClient, err = storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			logg.Fatal("connect minio", zap.Error(err))
		}
		if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
			logg.Fatal("ensure bucket", zap.Error(err))
		}
	}

	analysisClient := analysis.NewClient(analysis.Config{
		APIKey:            cfg.AI.APIKey,
		Model:             cfg.AI.Model,
		BaseURL:           cfg.AI.BaseURL,
		Timeout:           cfg.AI.Timeout,
		MaxTokens:         cfg.AI.MaxTokens,
		MaxImageDimension: cfg.AI.MaxImageDimension,
	}, nil)
	analysisService := analysis.NewService(analysisClient, logg.Named("analysis"))
	if !analysisService.Available() {
		logg.Warn("OPENAI_API_KEY not set, AI analysis disabled")
	}

	extractor := metadata.NewService(analysisService, logg.Named("metadata"))

	var archiveService *archive.Service
	if cfg.Storage.SaveEnabled {
		repo, err := archive.NewRepository(cfg.Storage.ImagesDir, cfg.Storage.DataDir, logg.Named("archive"))
		if err != nil {
			logg.Fatal("open archive", zap.Error(err))
		}

		var mirror *archive.MinIOStore
		if minioClient != nil {
			mirror = archive.NewMinIOStore(minioClient)
		}
		archiveService = newArchiveService(repo, mirror, cfg.MinIO.Bucket, logg.Named("archive"))
	}

	router := server.NewRouter(server.Dependencies{
		Config:      cfg,
		Logger:      logg,
		ObjectStore: minioClient,
		Extractor:   extractor,
		Analysis:    analysisService,
		Archive:     archiveService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("image metadata API listening",
			zap.String("address", cfg.Server.Address()),
			zap.Bool("save_enabled", cfg.Storage.SaveEnabled),
			zap.Bool("minio_enabled", cfg.MinIO.Enabled),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", zap.Error(err))
	}
}

// newArchiveService keeps a nil mirror from becoming a non-nil interface.
func newArchiveService(repo *archive.Repository, mirror *archive.MinIOStore, bucket string, log *zap.Logger) *archive.Service {
	if mirror == nil {
		return archive.NewService(repo, nil, bucket, log)
	}
	return archive.NewService(repo, mirror, bucket, log)
}
