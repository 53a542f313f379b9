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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"afc-report-backend/config"
	"afc-report-backend/internal/api"
	"afc-report-backend/internal/db"
	"afc-report-backend/internal/form"
	"afc-report-backend/internal/logger"
	"afc-report-backend/internal/notification"
	"afc-report-backend/internal/queue"
	"afc-report-backend/internal/remote"
	"afc-report-backend/internal/store"
	"afc-report-backend/internal/submit"
)

func main() {
	config.LoadDotEnv()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.For("main")
	log.WithField("path", configPath).Info("configuration loaded")

	gin.SetMode(cfg.Server.Mode)

	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		log.WithError(err).Warnf("unknown timezone %q, using local time", cfg.Server.Timezone)
		loc = time.Local
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	remoteClient := remote.NewClient(cfg.Remote)
	if !remoteClient.Configured() {
		log.Warn("no Google Script URL configured; reports will stay queued")
	}

	var submitter submit.Submitter = submit.NewRemoteClient(remoteClient)
	if cfg.Sync.SubmitURL != "" {
		submitter = submit.NewHTTPClient(cfg.Sync.SubmitURL, cfg.Remote.Timeout)
	}

	var probe queue.Connectivity = queue.AlwaysOnline{}
	if cfg.Sync.ProbeURL != "" {
		probe = queue.NewHTTPProbe(cfg.Sync.ProbeURL, cfg.Sync.ProbeTimeout)
	}

	controller := queue.NewController(appStore, submitter, probe, cfg.Sync.Interval)

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pool.Start(ctx)
		controller.SetNotifier(pool)
	} else {
		log.Info("VAPID keys not configured; sync notifications disabled")
	}

	if cfg.Sync.Enabled {
		go controller.Run(ctx)
	} else {
		controller.Refresh(ctx)
		log.Warn("background sync disabled; use POST /api/pending/sync")
	}

	reportForm := form.New(ctx, appStore, appStore, controller, form.Options{
		DefaultReporter: cfg.Form.DefaultReporter,
		DefaultStation:  cfg.Form.DefaultStation,
		Location:        loc,
	})

	handler := api.NewHandler(appStore, remoteClient, controller, reportForm, webpushOptions)
	router := api.NewRouter(ctx, cfg.Server, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownDuration)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	cancel()

	log.Info("server gracefully stopped")
}
