package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tank-monitor/analytics/internal/analytics"
	"tank-monitor/analytics/internal/auth"
	"tank-monitor/analytics/internal/config"
	"tank-monitor/analytics/internal/monitor"
	"tank-monitor/analytics/internal/mqtt"
	"tank-monitor/analytics/internal/pipeline"
	"tank-monitor/analytics/internal/store"
	transporthttp "tank-monitor/analytics/internal/transport/http"
	"tank-monitor/analytics/internal/transport/ws"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := store.NewPostgresStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Postgres: %v", err)
	}
	defer pg.Close()

	rdb, err := store.NewRedisStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Redis: %v", err)
	}
	defer rdb.Close()

	publishers := []pipeline.AlertPublisher{rdb}
	if cfg.MQTTEnabled {
		mq, err := mqtt.NewPublisher(mqtt.ClientConfig{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTTopicPrefix,
		})
		if err != nil {
			log.Fatalf("MQTT: %v", err)
		}
		defer mq.Close()
		publishers = append(publishers, mq)
	}

	svc := monitor.NewService(pg, pg, analytics.Params{
		Window:     cfg.Window(),
		Thresholds: cfg.Thresholds(),
	}, monitor.WithWorkers(cfg.EvalWorkers))

	dispatcher := pipeline.NewDispatcher(cfg.StatusLogChannelSize, cfg.AlertChannelSize, cfg.PublishChannelSize)
	scheduler := pipeline.NewScheduler(svc, dispatcher, cfg.EvalInterval)
	logWriter := pipeline.NewStatusLogWriter(dispatcher.LogChan, pg, cfg.LogBatchSize, cfg.LogFlushIntervalMS)
	statusPub := pipeline.NewStatusPublisher(dispatcher.PublishChan, rdb)
	alerts := pipeline.NewAlertEvaluator(dispatcher.AlertChan, rdb, pg, cfg.AlertDedupTTL, publishers...)

	var workers sync.WaitGroup
	for _, run := range []func(context.Context){logWriter.Run, statusPub.Run, alerts.Run} {
		workers.Add(1)
		go func(run func(context.Context)) {
			defer workers.Done()
			run(ctx)
		}(run)
	}

	schedCtx, stopScheduler := context.WithCancel(ctx)
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		scheduler.Run(schedCtx)
	}()

	hub := ws.NewHub()
	sub := rdb.SubscribeStatuses(ctx)
	defer sub.Close()
	go hub.Run(ctx, sub.Channel())

	authn := auth.NewAuthenticator(cfg, rdb)
	handler := transporthttp.NewHandler(svc, transporthttp.NewAuthMiddleware(authn), hub, map[string]transporthttp.Pinger{
		"postgres": pg,
		"redis":    rdb,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Tank analytics listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	// Stop producing, then let the workers drain what was dispatched.
	stopScheduler()
	<-schedDone
	dispatcher.Close()
	workers.Wait()
	cancel()

	log.Println("Stopped")
}
