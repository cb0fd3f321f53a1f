// Package repository contains data access logic for the movie catalogue.
// Listings join the movie_avg_rating view for the derived review count;
// the authoritative movies.avg_rating column is written by the review
// recompute path (see review_repository.go).
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Chaeyeon26/Movie-App/internal/model"
)

// MovieRepo manages persistence for movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories.
func (r *MovieRepo) DB() *sql.DB {
	return r.db
}

// MovieListing is a movie row joined with the movie_avg_rating view.
// AvgRating and ReviewCount are coalesced to zero for movies without
// reviews so callers never see NULL aggregates.
type MovieListing struct {
	ID          uint64  `json:"movie_id"`
	Title       string  `json:"title"`
	Genre       string  `json:"genre"`
	ReleaseYear int     `json:"release_year"`
	Summary     string  `json:"summary"`
	PosterURL   string  `json:"poster_url"`
	AvgRating   float64 `json:"avg_rating"`
	ReviewCount int     `json:"review_count"`
}

// Create inserts a new movie and assigns the generated ID back to the
// struct. AvgRating starts at the DB default of 0.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (title, genre, release_year, summary, poster_url) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Genre, m.ReleaseYear, m.Summary, m.PosterURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID retrieves a movie by its ID. It returns ErrMovieNotFound if
// there is no matching row.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = `SELECT movie_id, title, COALESCE(genre,''), COALESCE(release_year,0), COALESCE(summary,''), COALESCE(poster_url,''), avg_rating
	           FROM movies WHERE movie_id = ?`
	var m model.Movie
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &m.Genre, &m.ReleaseYear, &m.Summary, &m.PosterURL, &m.AvgRating)
	if err == sql.ErrNoRows {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetDetail returns a movie joined with the movie_avg_rating view so
// the detail page can show the review count alongside the rating.
func (r *MovieRepo) GetDetail(ctx context.Context, id uint64) (*MovieListing, error) {
	const q = `SELECT m.movie_id, m.title, COALESCE(m.genre,''), COALESCE(m.release_year,0),
	                  COALESCE(m.summary,''), COALESCE(m.poster_url,''),
	                  COALESCE(v.avg_rating,0), COALESCE(v.review_count,0)
	           FROM movies m
	           LEFT JOIN movie_avg_rating v ON v.movie_id = m.movie_id
	           WHERE m.movie_id = ?`
	var l MovieListing
	err := r.db.QueryRowContext(ctx, q, id).Scan(&l.ID, &l.Title, &l.Genre, &l.ReleaseYear, &l.Summary, &l.PosterURL, &l.AvgRating, &l.ReviewCount)
	if err == sql.ErrNoRows {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns all movies joined with the rating view, ordered by ID.
func (r *MovieRepo) List(ctx context.Context) ([]MovieListing, error) {
	const q = `SELECT m.movie_id, m.title, COALESCE(m.genre,''), COALESCE(m.release_year,0),
	                  COALESCE(m.summary,''), COALESCE(m.poster_url,''),
	                  COALESCE(v.avg_rating,0), COALESCE(v.review_count,0)
	           FROM movies m
	           LEFT JOIN movie_avg_rating v ON v.movie_id = m.movie_id
	           ORDER BY m.movie_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MovieListing, 0)
	for rows.Next() {
		var l MovieListing
		if err := rows.Scan(&l.ID, &l.Title, &l.Genre, &l.ReleaseYear, &l.Summary, &l.PosterURL, &l.AvgRating, &l.ReviewCount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Search filters movies by optional title substring, exact genre and
// release year. Empty parameters are ignored.
func (r *MovieRepo) Search(ctx context.Context, title, genre string, year int) ([]MovieListing, error) {
	q := `SELECT m.movie_id, m.title, COALESCE(m.genre,''), COALESCE(m.release_year,0),
	             COALESCE(m.summary,''), COALESCE(m.poster_url,''),
	             COALESCE(v.avg_rating,0), COALESCE(v.review_count,0)
	      FROM movies m
	      LEFT JOIN movie_avg_rating v ON v.movie_id = m.movie_id
	      WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if strings.TrimSpace(title) != "" {
		q += ` AND m.title LIKE ?`
		args = append(args, "%"+strings.TrimSpace(title)+"%")
	}
	if strings.TrimSpace(genre) != "" {
		q += ` AND m.genre = ?`
		args = append(args, strings.TrimSpace(genre))
	}
	if year > 0 {
		q += ` AND m.release_year = ?`
		args = append(args, year)
	}
	q += ` ORDER BY m.movie_id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MovieListing, 0)
	for rows.Next() {
		var l MovieListing
		if err := rows.Scan(&l.ID, &l.Title, &l.Genre, &l.ReleaseYear, &l.Summary, &l.PosterURL, &l.AvgRating, &l.ReviewCount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Genres returns the distinct non-empty genre labels in the catalogue.
func (r *MovieRepo) Genres(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT genre FROM movies WHERE genre IS NOT NULL AND genre <> '' ORDER BY genre`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Recommend returns up to limit movies sharing the given movie's genre,
// excluding the movie itself, newest releases first.
func (r *MovieRepo) Recommend(ctx context.Context, movieID uint64, genre string, limit int) ([]MovieListing, error) {
	const q = `SELECT m.movie_id, m.title, COALESCE(m.genre,''), COALESCE(m.release_year,0),
	                  COALESCE(m.summary,''), COALESCE(m.poster_url,''),
	                  COALESCE(v.avg_rating,0), COALESCE(v.review_count,0)
	           FROM movies m
	           LEFT JOIN movie_avg_rating v ON v.movie_id = m.movie_id
	           WHERE m.genre = ? AND m.movie_id <> ?
	           ORDER BY m.release_year DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, genre, movieID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MovieListing, 0)
	for rows.Next() {
		var l MovieListing
		if err := rows.Scan(&l.ID, &l.Title, &l.Genre, &l.ReleaseYear, &l.Summary, &l.PosterURL, &l.AvgRating, &l.ReviewCount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update overwrites the editable columns of a movie. It returns
// ErrMovieNotFound when the row does not exist.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies SET title = ?, genre = ?, release_year = ?, summary = ?, poster_url = ? WHERE movie_id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Genre, m.ReleaseYear, m.Summary, m.PosterURL, m.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from a no-op update.
		var exists uint64
		if err := r.db.QueryRowContext(ctx, `SELECT movie_id FROM movies WHERE movie_id = ?`, m.ID).Scan(&exists); err == sql.ErrNoRows {
			return ErrMovieNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// HasScreens reports whether any screening still references the movie.
// Movie deletion is blocked while this holds.
func (r *MovieRepo) HasScreens(ctx context.Context, movieID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM screens WHERE movie_id = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, movieID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Delete removes a movie row. Callers must check HasScreens first;
// ErrMovieNotFound is returned when no row was deleted.
func (r *MovieRepo) Delete(ctx context.Context, movieID uint64) error {
	const q = `DELETE FROM movies WHERE movie_id = ?`
	res, err := r.db.ExecContext(ctx, q, movieID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMovieNotFound
	}
	return nil
}
