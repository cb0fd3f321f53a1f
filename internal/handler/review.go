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

// ReviewHandler groups the repositories needed for the review
// lifecycle. Every write runs the review mutation and the movie rating
// recompute inside one transaction: either both persist or neither
// does, so the cached avg_rating can never drift from the review rows.
type ReviewHandler struct {
	ReviewRepo      *repository.ReviewRepo
	ReservationRepo *repository.ReservationRepo
}

// NewReviewHandler constructs a ReviewHandler with the provided
// repositories. All dependencies must be non-nil.
func NewReviewHandler(reviewRepo *repository.ReviewRepo, resRepo *repository.ReservationRepo) *ReviewHandler {
	if reviewRepo == nil || resRepo == nil {
		panic("nil repository passed to NewReviewHandler")
	}
	return &ReviewHandler{ReviewRepo: reviewRepo, ReservationRepo: resRepo}
}

type reviewResp struct {
	ID            uint64    `json:"review_id"`
	ReservationID uint64    `json:"reservation_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

// Create handles POST /v1/reviews. A review may only be written by the
// reservation's owner, once per reservation, and only after the
// screening has fully ended (the end_time boundary is inclusive).
// The response carries the movie id so clients can navigate to the
// refreshed detail page.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var body struct {
		ReservationID uint64 `json:"reservation_id"`
		Rating        int    `json:"rating"`
		Comment       string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if body.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "reservation_id is required"})
	}
	if !validRating(body.Rating) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "rating must be an integer between 1 and 5"})
	}
	ctx := c.Request().Context()

	res, screen, err := h.ReservationRepo.GetWithScreen(ctx, body.ReservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if res.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	if !reviewOpen(time.Now().UTC(), screen.EndTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "reviews can only be written after the screening has ended"})
	}

	tx, err := h.ReviewRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	exists, err := h.ReviewRepo.ExistsForReservationTx(ctx, tx, body.ReservationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"message": "a review already exists for this reservation"})
	}
	rev := &model.Review{ReservationID: body.ReservationID, Rating: body.Rating, Comment: body.Comment}
	if err := h.ReviewRepo.CreateTx(ctx, tx, rev); err != nil {
		// A concurrent writer can slip past the existence check and
		// win the unique key on reservation_id.
		if duplicateKey(err) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "a review already exists for this reservation"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create review"})
	}
	if err := h.ReviewRepo.RecomputeMovieRatingTx(ctx, tx, screen.MovieID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update movie rating"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"review": reviewResp{
			ID:            rev.ID,
			ReservationID: rev.ReservationID,
			Rating:        rev.Rating,
			Comment:       rev.Comment,
			CreatedAt:     rev.CreatedAt,
		},
		"movie_id": screen.MovieID,
	})
}

// Update handles PUT /v1/reviews/:id. Only the owning user may edit a
// review; rating and comment are replaced and the movie's average
// rating is recomputed in the same transaction.
func (h *ReviewHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || reviewID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid review id"})
	}
	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if !validRating(body.Rating) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "rating must be an integer between 1 and 5"})
	}
	ctx := c.Request().Context()

	rev, ownerID, movieID, err := h.ReviewRepo.GetWithOwner(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if ownerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	tx, err := h.ReviewRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.ReviewRepo.UpdateTx(ctx, tx, reviewID, body.Rating, body.Comment); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update review"})
	}
	if err := h.ReviewRepo.RecomputeMovieRatingTx(ctx, tx, movieID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update movie rating"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"message": "review updated",
		"review": reviewResp{
			ID:            rev.ID,
			ReservationID: rev.ReservationID,
			Rating:        body.Rating,
			Comment:       body.Comment,
			CreatedAt:     rev.CreatedAt,
		},
		"movie_id": movieID,
	})
}

// Delete handles DELETE /v1/reviews/:id. Only the owning user may
// delete a review. The recompute runs after the delete so the movie's
// rating reflects the remaining reviews; with none left it becomes 0.
func (h *ReviewHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || reviewID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid review id"})
	}
	ctx := c.Request().Context()

	_, ownerID, movieID, err := h.ReviewRepo.GetWithOwner(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if ownerID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	tx, err := h.ReviewRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.ReviewRepo.DeleteTx(ctx, tx, reviewID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete review"})
	}
	if err := h.ReviewRepo.RecomputeMovieRatingTx(ctx, tx, movieID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update movie rating"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"message": "review deleted"})
}

// ListByMovie handles GET /v1/reviews/movie/:id. The optional ?sort=
// parameter accepts latest (default), oldest, rating_desc and
// rating_asc.
func (h *ReviewHandler) ListByMovie(c echo.Context) error {
	movieID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid movie id"})
	}
	list, err := h.ReviewRepo.ListByMovie(c.Request().Context(), movieID, c.QueryParam("sort"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load reviews"})
	}
	return c.JSON(http.StatusOK, list)
}

// Distribution handles GET /v1/reviews/movie/:id/distribution. The
// response always contains exactly five buckets for ratings 1 through
// 5, zero-filled, even for movies without any reviews.
func (h *ReviewHandler) Distribution(c echo.Context) error {
	movieID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid movie id"})
	}
	dist, err := h.ReviewRepo.Distribution(c.Request().Context(), movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load rating distribution"})
	}
	return c.JSON(http.StatusOK, dist)
}

// UserReviews handles GET /v1/reviews/user/:id. Users may only view
// their own reviews; admins may view anyone's. Newest first.
func (h *ReviewHandler) UserReviews(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || targetID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}
	if targetID != callerID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	list, err := h.ReviewRepo.ListByUser(c.Request().Context(), targetID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load reviews"})
	}
	return c.JSON(http.StatusOK, list)
}
