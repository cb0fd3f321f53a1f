package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Chaeyeon26/Movie-App/internal/model"
	"github.com/Chaeyeon26/Movie-App/internal/repository"
)

// MovieHandler exposes catalogue reads for everyone and create/update/
// delete for admins. The RequireRole middleware guards the admin
// routes; ownership is not a concept here, only the role.
type MovieHandler struct {
	MovieRepo *repository.MovieRepo
}

// NewMovieHandler constructs a MovieHandler. The repository must be non-nil.
func NewMovieHandler(movieRepo *repository.MovieRepo) *MovieHandler {
	if movieRepo == nil {
		panic("nil repository passed to NewMovieHandler")
	}
	return &MovieHandler{MovieRepo: movieRepo}
}

type movieReq struct {
	Title       string `json:"title"`
	Genre       string `json:"genre"`
	ReleaseYear int    `json:"release_year"`
	Summary     string `json:"summary"`
	PosterURL   string `json:"poster_url"`
}

// Create handles POST /v1/movies (admin only).
func (h *MovieHandler) Create(c echo.Context) error {
	var body movieReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if body.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title is required"})
	}
	m := &model.Movie{
		Title:       body.Title,
		Genre:       body.Genre,
		ReleaseYear: body.ReleaseYear,
		Summary:     body.Summary,
		PosterURL:   body.PosterURL,
	}
	if err := h.MovieRepo.Create(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create movie"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "movie created", "movie": m})
}

// Update handles PUT /v1/movies/:id (admin only).
func (h *MovieHandler) Update(c echo.Context) error {
	movieID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid movie id"})
	}
	var body movieReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if body.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title is required"})
	}
	m := &model.Movie{
		ID:          movieID,
		Title:       body.Title,
		Genre:       body.Genre,
		ReleaseYear: body.ReleaseYear,
		Summary:     body.Summary,
		PosterURL:   body.PosterURL,
	}
	if err := h.MovieRepo.Update(c.Request().Context(), m); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update movie"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "movie updated", "movie": m})
}

// Delete handles DELETE /v1/movies/:id (admin only). Deletion is
// blocked while any screening still references the movie.
func (h *MovieHandler) Delete(c echo.Context) error {
	movieID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid movie id"})
	}
	ctx := c.Request().Context()
	hasScreens, err := h.MovieRepo.HasScreens(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if hasScreens {
		return c.JSON(http.StatusConflict, echo.Map{"message": "movie has screenings and cannot be deleted"})
	}
	if err := h.MovieRepo.Delete(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete movie"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "movie deleted"})
}

// List handles GET /v1/movies. Rows are joined with the
// movie_avg_rating view so listings carry rating and review count.
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.MovieRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load movies"})
	}
	return c.JSON(http.StatusOK, movies)
}

// Get handles GET /v1/movies/:id.
func (h *MovieHandler) Get(c echo.Context) error {
	movieID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid movie id"})
	}
	detail, err := h.MovieRepo.GetDetail(c.Request().Context(), movieID)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load movie"})
	}
	return c.JSON(http.StatusOK, detail)
}

// Search handles GET /v1/movies/search?title=&genre=&year=.
func (h *MovieHandler) Search(c echo.Context) error {
	year := 0
	if raw := c.QueryParam("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid year"})
		}
		year = n
	}
	movies, err := h.MovieRepo.Search(c.Request().Context(), c.QueryParam("title"), c.QueryParam("genre"), year)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "movie search failed"})
	}
	return c.JSON(http.StatusOK, movies)
}

// Genres handles GET /v1/movies/genres.
func (h *MovieHandler) Genres(c echo.Context) error {
	genres, err := h.MovieRepo.Genres(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load genres"})
	}
	return c.JSON(http.StatusOK, genres)
}

// Recommend handles GET /v1/movies/:id/recommend. It returns up to
// three other movies of the same genre, newest releases first.
func (h *MovieHandler) Recommend(c echo.Context) error {
	movieID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid movie id"})
	}
	ctx := c.Request().Context()
	movie, err := h.MovieRepo.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	recs, err := h.MovieRepo.Recommend(ctx, movieID, movie.Genre, 3)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load recommendations"})
	}
	return c.JSON(http.StatusOK, recs)
}
