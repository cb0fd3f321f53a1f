// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Chaeyeon26/Movie-App/internal/config"
	"github.com/Chaeyeon26/Movie-App/internal/handler"
	"github.com/Chaeyeon26/Movie-App/internal/middleware"
)

// Handlers collects every handler the route tables need.
type Handlers struct {
	Auth        *handler.AuthHandler
	Movie       *handler.MovieHandler
	Screen      *handler.ScreenHandler
	Reservation *handler.ReservationHandler
	Review      *handler.ReviewHandler
}

// RegisterRoutes mounts the whole API:
//
//	/healthz                unauthenticated probe
//	/v1/auth/*              register, login, refresh, logout
//	/v1/movies, /v1/screens unauthenticated browsing (cached)
//	/v1/* (protected)       reservations, reviews, user history
//	/v1/movies, /v1/screens write methods: admin only
func RegisterRoutes(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e.GET("/healthz", handler.Health)

	// Session endpoints. Rate limited so credential stuffing burns the
	// bucket, never the bcrypt budget.
	auth := e.Group("/v1/auth", rateLimit)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Guest browsing. Read-only, served through the response cache.
	pub := e.Group("/v1", rateLimit, cache)
	pub.GET("/movies", h.Movie.List)
	pub.GET("/movies/search", h.Movie.Search)
	pub.GET("/movies/genres", h.Movie.Genres)
	pub.GET("/movies/:id", h.Movie.Get)
	pub.GET("/movies/:id/recommend", h.Movie.Recommend)
	pub.GET("/reviews/movie/:id", h.Review.ListByMovie)
	pub.GET("/reviews/movie/:id/distribution", h.Review.Distribution)
	pub.GET("/screens", h.Screen.List)
	pub.GET("/screens/movie/:movieId", h.Screen.ListByMovie)
	pub.GET("/screens/:id/seats", h.Reservation.ReservedSeats)

	// Authenticated user actions. Booking and reviewing are never
	// cached; every response depends on who asks and when.
	user := e.Group("/v1", rateLimit,
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole("user", "admin"))
	user.GET("/me", h.Auth.Me)
	user.POST("/reservations", h.Reservation.Reserve)
	user.POST("/reservations/multi", h.Reservation.ReserveMany)
	user.DELETE("/reservations/:id", h.Reservation.Cancel)
	user.GET("/reservations/user/:id", h.Reservation.UserReservations)
	user.POST("/reviews", h.Review.Create)
	user.PUT("/reviews/:id", h.Review.Update)
	user.DELETE("/reviews/:id", h.Review.Delete)
	user.GET("/reviews/user/:id", h.Review.UserReviews)

	// Catalog management shares the /v1 paths but is admin only; the
	// public group above owns the read methods.
	admin := e.Group("/v1", rateLimit,
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole("admin"))
	admin.POST("/movies", h.Movie.Create)
	admin.PUT("/movies/:id", h.Movie.Update)
	admin.DELETE("/movies/:id", h.Movie.Delete)
	admin.POST("/screens", h.Screen.Create)
	admin.PUT("/screens/:id", h.Screen.Update)
	admin.DELETE("/screens/:id", h.Screen.Delete)
}
