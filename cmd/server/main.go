package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/odeska/cinema-booking/internal/booking"
	"github.com/odeska/cinema-booking/internal/cache"
	"github.com/odeska/cinema-booking/internal/clock"
	"github.com/odeska/cinema-booking/internal/config"
	"github.com/odeska/cinema-booking/internal/database"
	"github.com/odeska/cinema-booking/internal/handler"
	"github.com/odeska/cinema-booking/internal/queue"
	"github.com/odeska/cinema-booking/internal/repository"
	"github.com/odeska/cinema-booking/internal/router"
	queuepublisher "github.com/odeska/cinema-booking/internal/service"
	"github.com/odeska/cinema-booking/migrations"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := migrations.Apply(context.Background(), db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; snapshot cache and rate limiting disabled")
	}

	showrooms := repository.NewShowroomRepo(db)
	prices := repository.NewPriceRepo(db)
	shows := repository.NewShowRepo(db)
	ledger := repository.NewLedgerRepo(db)
	holds := repository.NewHoldRepo(db)
	bookings := repository.NewBookingRepo(db)

	clk := clock.NewSystem()
	publisher := queuepublisher.New(cfg.AmqpURL)
	flat, perType := cfg.TaxRates()
	tax := booking.TaxPolicy{FlatRateBP: flat, PerSeatTypeBP: perType}

	holdMgr := booking.NewHoldManager(shows, showrooms, ledger, holds, clk, cfg.HoldTTL, publisher)
	finalizer := booking.NewFinalizer(shows, showrooms, prices, ledger, holds, bookings, clk, tax, cfg.CancelCutoff, publisher)

	snapshots := cache.NewSnapshotCache(rdb, cfg.SnapshotCacheTTL)

	browseH := &handler.BrowseHandler{
		Shows:     shows,
		Seats:     showrooms,
		Holds:     holdMgr,
		Snapshots: snapshots,
		Clock:     clk,
	}
	bookH := handler.NewBookingHandler(holdMgr, finalizer, snapshots, cfg.HoldTokenSecret)
	adminH := &handler.AdminHandler{
		Showrooms: showrooms,
		Prices:    prices,
		Shows:     shows,
		Ledger:    ledger,
		Finalizer: finalizer,
	}

	// Advisory sweep; the guarded transitions at access time remain the
	// authority on expiry.
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go booking.NewSweeper(holdMgr, cfg.SweepInterval).Run(sweepCtx)

	if cfg.AmqpURL != "" {
		go func() {
			if err := queue.StartConsumer(cfg.AmqpURL); err != nil {
				log.Printf("booking-consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	router.Register(e, browseH, bookH, adminH, config.LoadRateLimitConfig(), cfg.AdminKeyHash, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
