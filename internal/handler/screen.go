package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Chaeyeon26/Movie-App/internal/model"
	"github.com/Chaeyeon26/Movie-App/internal/repository"
)

// ScreenHandler exposes screening reads for everyone and create/
// update/delete for admins.
type ScreenHandler struct {
	ScreenRepo *repository.ScreenRepo
	MovieRepo  *repository.MovieRepo
}

// NewScreenHandler constructs a ScreenHandler. Repositories must be non-nil.
func NewScreenHandler(screenRepo *repository.ScreenRepo, movieRepo *repository.MovieRepo) *ScreenHandler {
	if screenRepo == nil || movieRepo == nil {
		panic("nil repository passed to NewScreenHandler")
	}
	return &ScreenHandler{ScreenRepo: screenRepo, MovieRepo: movieRepo}
}

type screenReq struct {
	MovieID     uint64    `json:"movie_id"`
	TheaterName string    `json:"theater_name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

func (b screenReq) validate() string {
	if b.MovieID == 0 {
		return "movie_id is required"
	}
	if b.TheaterName == "" {
		return "theater_name is required"
	}
	if b.StartTime.IsZero() || b.EndTime.IsZero() {
		return "start_time and end_time are required"
	}
	if !b.StartTime.Before(b.EndTime) {
		return "start_time must be before end_time"
	}
	return ""
}

// Create handles POST /v1/screens (admin only). The referenced movie
// must exist and start_time must precede end_time.
func (h *ScreenHandler) Create(c echo.Context) error {
	var body screenReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}
	ctx := c.Request().Context()
	if _, err := h.MovieRepo.GetByID(ctx, body.MovieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	s := &model.Screen{
		MovieID:     body.MovieID,
		TheaterName: body.TheaterName,
		StartTime:   body.StartTime.UTC(),
		EndTime:     body.EndTime.UTC(),
	}
	if err := h.ScreenRepo.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create screen"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "screen created", "screen": s})
}

// Update handles PUT /v1/screens/:id (admin only).
func (h *ScreenHandler) Update(c echo.Context) error {
	screenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || screenID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid screen id"})
	}
	var body screenReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}
	ctx := c.Request().Context()
	if _, err := h.MovieRepo.GetByID(ctx, body.MovieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	s := &model.Screen{
		ID:          screenID,
		MovieID:     body.MovieID,
		TheaterName: body.TheaterName,
		StartTime:   body.StartTime.UTC(),
		EndTime:     body.EndTime.UTC(),
	}
	if err := h.ScreenRepo.Update(ctx, s); err != nil {
		if errors.Is(err, repository.ErrScreenNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "screen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update screen"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "screen updated", "screen": s})
}

// Delete handles DELETE /v1/screens/:id (admin only). Deletion is
// blocked while any reservation references the screening, so booking
// history is never orphaned.
func (h *ScreenHandler) Delete(c echo.Context) error {
	screenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || screenID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid screen id"})
	}
	ctx := c.Request().Context()
	if _, err := h.ScreenRepo.GetByID(ctx, screenID); err != nil {
		if errors.Is(err, repository.ErrScreenNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "screen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	hasRes, err := h.ScreenRepo.HasReservations(ctx, screenID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if hasRes {
		return c.JSON(http.StatusConflict, echo.Map{"message": "screen has reservations and cannot be deleted"})
	}
	if err := h.ScreenRepo.Delete(ctx, screenID); err != nil {
		if errors.Is(err, repository.ErrScreenNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "screen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete screen"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "screen deleted"})
}

// List handles GET /v1/screens.
func (h *ScreenHandler) List(c echo.Context) error {
	screens, err := h.ScreenRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load screens"})
	}
	return c.JSON(http.StatusOK, screens)
}

// ListByMovie handles GET /v1/screens/movie/:movieId, sorted by start
// time ascending.
func (h *ScreenHandler) ListByMovie(c echo.Context) error {
	movieID, err := strconv.ParseUint(c.Param("movieId"), 10, 64)
	if err != nil || movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid movie id"})
	}
	ctx := c.Request().Context()
	if _, err := h.MovieRepo.GetByID(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	screens, err := h.ScreenRepo.ListByMovie(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load screens"})
	}
	return c.JSON(http.StatusOK, screens)
}
