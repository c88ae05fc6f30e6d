package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kimberlyPrest/disparo-whatsapp/internal/cache/redis"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/config"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/db/gormdb"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/dispatcher"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/handler"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/planner"
	campRepo "github.com/kimberlyPrest/disparo-whatsapp/internal/repository/gorm/campaign"
	mesgRepo "github.com/kimberlyPrest/disparo-whatsapp/internal/repository/gorm/message"
	routes "github.com/kimberlyPrest/disparo-whatsapp/internal/router"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/scheduler"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/sender"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/server"
	"github.com/kimberlyPrest/disparo-whatsapp/internal/service"
)

func main() {
	// Base context for the whole application lifetime.
	rootCtx := context.Background()

	// Load configuration from environment/.env.
	cfg := config.New()
	loc := cfg.CampaignLocation()

	// Init cache.
	cache := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := cache.Ping(rootCtx); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	// Init DB.
	dsn := cfg.PostgresDSN()
	db, err := gormdb.New(dsn)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}

	// Init send endpoint client.
	sendClient := sender.NewWebhookClient(cfg.Webhook.URL, cfg.Webhook.Key, cfg.Dispatch.SendTimeout)
	if err := sendClient.Health(rootCtx); err != nil {
		log.Fatalf("failed to ping send endpoint: %v", err)
	}

	// Init repositories.
	campaignRepository := campRepo.NewRepository(db)
	messageRepository := mesgRepo.NewRepository(db)

	// Dispatcher
	disp := dispatcher.New(
		campaignRepository,
		messageRepository,
		sendClient,
		cache,
		loc,
		cfg.Dispatch.Budget,
		cfg.Dispatch.StaleClaimAfter,
	)

	// Campaign admission + operator commands. A fresh campaign gets an
	// immediate targeted dispatcher run.
	pln := planner.New(cfg.Campaign.AdmissionBuffer, loc)
	campaignSvc := service.NewCampaignService(
		campaignRepository,
		messageRepository,
		pln,
		loc,
		func(id uuid.UUID) {
			go disp.Run(rootCtx, id)
		},
	)

	// Cron
	cron := scheduler.NewSchedulerService(
		disp,
		cfg.Scheduler.Interval,
		cfg.Scheduler.SweepTimeout,
	)

	// HTTP dependencies & server wiring.

	// Handlers
	homeHandler := handler.NewHomeHandler()
	campaignHandler := handler.NewCampaignHandler(campaignSvc, cron)
	dispatchHandler := handler.NewDispatchHandler(disp)

	// Init route dependencies
	deps := routes.AppDeps{
		Home:     homeHandler,
		Campaign: campaignHandler,
		Dispatch: dispatchHandler,
	}

	// Init Server
	addr := fmt.Sprintf("%s:%s", cfg.API.Host, cfg.API.Port)
	srv := server.New(addr, deps)

	// Create a context that is cancelled on SIGINT/SIGTERM (Ctrl+C, docker stop etc.).
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the HTTP server in a separate goroutine so we can listen for signals.
	go func() {
		log.Printf("HTTP server listening on %s", addr)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Start the scheduler after everything is wired up.
	err = cron.Start()
	if err != nil {
		log.Fatalf("Cron job service error: %v", err)
	}
	log.Println("[Main] Scheduler started.")

	// Block until we receive a shutdown signal.
	<-ctx.Done()
	log.Println("[Main] Shutdown signal received, starting graceful shutdown...")

	// Give components some time to shut down cleanly.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop the scheduler (waits for an in-flight sweep to finish or time out).
	log.Println("[Main] Stopping scheduler...")
	err = cron.Stop()
	if err != nil {
		log.Fatalf("Cron job could not stopped. error: %v", err)
	}
	log.Println("[Main] Scheduler stopped.")

	// Gracefully shut down the HTTP server.
	log.Println("[Main] Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Main] HTTP server graceful shutdown failed: %v", err)
	} else {
		log.Println("[Main] HTTP server stopped.")
	}

	log.Println("[Main] Shutdown complete.")
}
