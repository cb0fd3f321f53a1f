package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Chaeyeon26/Movie-App/internal/config"
	"github.com/Chaeyeon26/Movie-App/internal/database"
	"github.com/Chaeyeon26/Movie-App/internal/handler"
	"github.com/Chaeyeon26/Movie-App/internal/queue"
	"github.com/Chaeyeon26/Movie-App/internal/repository"
	"github.com/Chaeyeon26/Movie-App/internal/router"
)

func main() {
	// .env is a local development convenience; absence is fine.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Nil when Redis is unreachable; rate limiting and caching then
	// degrade to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	screenRepo := repository.NewScreenRepo(db)
	resRepo := repository.NewReservationRepo(db)
	reviewRepo := repository.NewReviewRepo(db)

	h := router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, userRepo, tokenRepo),
		Movie:       handler.NewMovieHandler(movieRepo),
		Screen:      handler.NewScreenHandler(screenRepo, movieRepo),
		Reservation: handler.NewReservationHandler(resRepo, screenRepo, movieRepo),
		Review:      handler.NewReviewHandler(reviewRepo, resRepo),
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, h, cfg, rdb)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
