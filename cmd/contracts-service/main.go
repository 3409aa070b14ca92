package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nurpe/carmate-contracts/internal/auth"
	"github.com/nurpe/carmate-contracts/internal/cache"
	"github.com/nurpe/carmate-contracts/internal/config"
	"github.com/nurpe/carmate-contracts/internal/db"
	"github.com/nurpe/carmate-contracts/internal/email"
	"github.com/nurpe/carmate-contracts/internal/excel"
	httphandler "github.com/nurpe/carmate-contracts/internal/http"
	"github.com/nurpe/carmate-contracts/internal/http/middleware"
	"github.com/nurpe/carmate-contracts/internal/logger"
	"github.com/nurpe/carmate-contracts/internal/notify"
	"github.com/nurpe/carmate-contracts/internal/pdf"
	"github.com/nurpe/carmate-contracts/internal/repository"
	"github.com/nurpe/carmate-contracts/internal/service"
	"github.com/nurpe/carmate-contracts/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	store := repository.NewStore(database)

	blobs, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init storage")
	}

	pdfGenerator, err := pdf.NewGenerator(cfg.Upload.PDFFontPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}

	var modelCache service.CarModelCache
	if cfg.Redis.Addr != "" {
		client, err := cache.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, car model cache disabled")
		} else {
			defer client.Close()
			modelCache = cache.NewCarModels(client, cfg.Redis.CarModelTTL)
		}
	}

	mailer := email.NewSMTPSender(cfg.SMTP)
	if !mailer.IsConfigured() {
		log.Warn().Msg("smtp is not configured, contract emails will fail")
	}
	grants := auth.NewDownloadGrants(cfg.Auth.DownloadTokenSecret, cfg.Auth.DownloadTokenTTL)
	dispatcher := notify.NewDispatcher(mailer, grants, notify.Options{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		BaseURL:     cfg.HTTP.BaseURL,
		SendTimeout: 30 * time.Second,
	}, log)
	dispatcher.Start(context.Background())

	documentService := service.NewDocumentService(store, blobs, grants, cfg.Upload.MaxDocumentBytes, log)
	contractService := service.NewContractService(store, documentService, dispatcher, pdfGenerator, log)
	importService := service.NewImportService(store, modelCache, excel.NewGenerator(), log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(contractService, documentService, importService, store, httphandler.Limits{
		MaxDocumentBytes: cfg.Upload.MaxDocumentBytes,
		MaxCSVBytes:      cfg.Upload.MaxCSVBytes,
	}, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.CORSOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("storage", string(cfg.Storage.Mode)).Msg("starting contracts service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	dispatcher.Close()
	documentService.Wait()

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("stopped")
}
