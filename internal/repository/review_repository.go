package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Chaeyeon26/Movie-App/internal/model"
)

// ReviewRepo provides persistence for reviews and the movie rating
// recompute. Reviews reach their movie through reservation -> screen,
// so every query here walks that join explicitly.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// DB exposes the underlying sql.DB so handlers can run the review write
// and the rating recompute in one transaction.
func (r *ReviewRepo) DB() *sql.DB {
	return r.db
}

// ExistsForReservationTx reports whether a review already exists for the
// reservation. The unique key on reservation_id backs this check; the
// handler still performs it up front to return a specific message.
func (r *ReviewRepo) ExistsForReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reviews WHERE reservation_id = ?)`
	var exists bool
	if err := tx.QueryRowContext(ctx, q, reservationID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateTx inserts a review within the caller's transaction and
// populates the generated ID and created_at on the given record.
func (r *ReviewRepo) CreateTx(ctx context.Context, tx *sql.Tx, rev *model.Review) error {
	const q = `INSERT INTO reviews (reservation_id, rating, comment) VALUES (?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, rev.ReservationID, rev.Rating, rev.Comment)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rev.ID = uint64(id)
	const sel = `SELECT reservation_id, rating, comment, created_at FROM reviews WHERE review_id = ?`
	return tx.QueryRowContext(ctx, sel, rev.ID).Scan(&rev.ReservationID, &rev.Rating, &rev.Comment, &rev.CreatedAt)
}

// GetWithOwner returns a review together with the owning user's ID and
// the ID of the movie the review belongs to (via reservation -> screen).
// Handlers use the user ID for the ownership check and the movie ID for
// the recompute after update or delete.
func (r *ReviewRepo) GetWithOwner(ctx context.Context, reviewID uint64) (*model.Review, uint64, uint64, error) {
	const q = `SELECT v.review_id, v.reservation_id, v.rating, v.comment, v.created_at,
	                  r.user_id, s.movie_id
	           FROM reviews v
	           JOIN reservations r ON r.reservation_id = v.reservation_id
	           JOIN screens s ON s.screen_id = r.screen_id
	           WHERE v.review_id = ?`
	var rev model.Review
	var userID, movieID uint64
	err := r.db.QueryRowContext(ctx, q, reviewID).Scan(
		&rev.ID, &rev.ReservationID, &rev.Rating, &rev.Comment, &rev.CreatedAt,
		&userID, &movieID,
	)
	if err == sql.ErrNoRows {
		return nil, 0, 0, ErrReviewNotFound
	}
	if err != nil {
		return nil, 0, 0, err
	}
	return &rev, userID, movieID, nil
}

// UpdateTx overwrites a review's rating and comment within the caller's
// transaction.
func (r *ReviewRepo) UpdateTx(ctx context.Context, tx *sql.Tx, reviewID uint64, rating int, comment string) error {
	const q = `UPDATE reviews SET rating = ?, comment = ? WHERE review_id = ?`
	_, err := tx.ExecContext(ctx, q, rating, comment, reviewID)
	return err
}

// DeleteTx removes a review row within the caller's transaction.
func (r *ReviewRepo) DeleteTx(ctx context.Context, tx *sql.Tx, reviewID uint64) error {
	const q = `DELETE FROM reviews WHERE review_id = ?`
	res, err := tx.ExecContext(ctx, q, reviewID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// RecomputeMovieRatingTx recalculates the movie's average rating from
// scratch and overwrites movies.avg_rating. The full recompute (rather
// than an incremental patch) keeps the cached column drift-free; with
// zero reviews the average is defined as 0, not NaN.
func (r *ReviewRepo) RecomputeMovieRatingTx(ctx context.Context, tx *sql.Tx, movieID uint64) error {
	const q = `UPDATE movies SET avg_rating = COALESCE((
	               SELECT ROUND(AVG(v.rating), 1)
	               FROM reviews v
	               JOIN reservations r ON r.reservation_id = v.reservation_id
	               JOIN screens s ON s.screen_id = r.screen_id
	               WHERE s.movie_id = ?
	           ), 0)
	           WHERE movie_id = ?`
	_, err := tx.ExecContext(ctx, q, movieID, movieID)
	return err
}

// MovieReviewDetail is a review joined with the reviewing user's name
// for the movie detail page.
type MovieReviewDetail struct {
	ID            uint64    `json:"review_id"`
	ReservationID uint64    `json:"reservation_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
	Username      string    `json:"username"`
}

// Review sort orders accepted by ListByMovie. Anything else falls back
// to SortLatest.
const (
	SortLatest     = "latest"
	SortOldest     = "oldest"
	SortRatingDesc = "rating_desc"
	SortRatingAsc  = "rating_asc"
)

// ListByMovie returns every review for the movie in the requested
// order. The sort parameter is mapped through a whitelist so it can
// never reach the SQL string unchecked.
func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID uint64, sort string) ([]MovieReviewDetail, error) {
	order := "v.created_at DESC"
	switch sort {
	case SortOldest:
		order = "v.created_at ASC"
	case SortRatingDesc:
		order = "v.rating DESC, v.created_at DESC"
	case SortRatingAsc:
		order = "v.rating ASC, v.created_at DESC"
	}
	q := `SELECT v.review_id, v.reservation_id, v.rating, v.comment, v.created_at, u.username
	      FROM reviews v
	      JOIN reservations r ON r.reservation_id = v.reservation_id
	      JOIN screens s ON s.screen_id = r.screen_id
	      JOIN users u ON u.user_id = r.user_id
	      WHERE s.movie_id = ?
	      ORDER BY ` + order
	rows, err := r.db.QueryContext(ctx, q, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MovieReviewDetail, 0)
	for rows.Next() {
		var d MovieReviewDetail
		if err := rows.Scan(&d.ID, &d.ReservationID, &d.Rating, &d.Comment, &d.CreatedAt, &d.Username); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RatingBucket is one entry of a movie's rating distribution.
type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// Distribution returns exactly five buckets for ratings 1 through 5,
// with zero counts filled in, regardless of whether the movie has any
// reviews at all.
func (r *ReviewRepo) Distribution(ctx context.Context, movieID uint64) ([]RatingBucket, error) {
	const q = `SELECT v.rating, COUNT(*)
	           FROM reviews v
	           JOIN reservations r ON r.reservation_id = v.reservation_id
	           JOIN screens s ON s.screen_id = r.screen_id
	           WHERE s.movie_id = ?
	           GROUP BY v.rating`
	rows, err := r.db.QueryContext(ctx, q, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[int]int, 5)
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, err
		}
		counts[rating] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]RatingBucket, 0, 5)
	for rating := 1; rating <= 5; rating++ {
		out = append(out, RatingBucket{Rating: rating, Count: counts[rating]})
	}
	return out, nil
}

// UserReviewDetail is a review joined with movie context for the
// "my reviews" page.
type UserReviewDetail struct {
	ID            uint64    `json:"review_id"`
	ReservationID uint64    `json:"reservation_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
	MovieID       uint64    `json:"movie_id"`
	MovieTitle    string    `json:"movie_title"`
}

// ListByUser returns every review the user authored (via reservation
// ownership), newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]UserReviewDetail, error) {
	const q = `SELECT v.review_id, v.reservation_id, v.rating, v.comment, v.created_at, m.movie_id, m.title
	           FROM reviews v
	           JOIN reservations r ON r.reservation_id = v.reservation_id
	           JOIN screens s ON s.screen_id = r.screen_id
	           JOIN movies m ON m.movie_id = s.movie_id
	           WHERE r.user_id = ?
	           ORDER BY v.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]UserReviewDetail, 0)
	for rows.Next() {
		var d UserReviewDetail
		if err := rows.Scan(&d.ID, &d.ReservationID, &d.Rating, &d.Comment, &d.CreatedAt, &d.MovieID, &d.MovieTitle); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
