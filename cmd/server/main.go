package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/stayloft/lodging-reservation/internal/booking"
	"github.com/stayloft/lodging-reservation/internal/config"
	"github.com/stayloft/lodging-reservation/internal/database"
	"github.com/stayloft/lodging-reservation/internal/handler"
	"github.com/stayloft/lodging-reservation/internal/middleware"
	"github.com/stayloft/lodging-reservation/internal/queue"
	"github.com/stayloft/lodging-reservation/internal/repository"
	"github.com/stayloft/lodging-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the cache and rate limiter become
	// passthroughs and bookings keep working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis: unavailable, response cache and rate limiting disabled")
	}

	store := repository.NewEngineStore(db)
	resolver := booking.NewAvailabilityResolver(store, nil)
	calc := booking.NewPriceCalculator(store)
	coord := booking.NewCoordinator(store, resolver, calc, cfg.PaymentGrace(), nil)
	lifecycle := booking.NewLifecycleManager(store, store, nil)

	sweeper, err := booking.NewSweeper(lifecycle, cfg.SweepInterval)
	if err != nil {
		log.Fatalf("sweeper: %v", err)
	}
	sweeper.Start()
	defer func() {
		if err := sweeper.Stop(); err != nil {
			log.Printf("sweeper: shutdown: %v", err)
		}
	}()

	// Audit consumer for reservation events; runs its own reconnect loop.
	go func() {
		if err := queue.StartEventsConsumer(); err != nil {
			log.Printf("events-consumer: %v", err)
		}
	}()

	owners := repository.NewRoomTypeRepo(db)
	calendar := repository.NewCalendarRepo(db)
	rates := repository.NewRateRepo(db)
	reviews := repository.NewReviewRepo(db)

	public := handler.NewPublicHandler(resolver, calc)
	guest := handler.NewGuestReservationHandler(coord, lifecycle, store, reviews, nil)
	hostRes := handler.NewHostReservationHandler(lifecycle, owners)
	hostOv := handler.NewHostOverrideHandler(owners, calendar, rates)

	e := echo.New()
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, public, cache)
	router.RegisterGuest(e, guest, cfg.JWTSecret, limiter)
	router.RegisterHost(e, hostRes, hostOv, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
