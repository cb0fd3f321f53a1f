package repository

import (
	"context"
	"database/sql"

	"github.com/Chaeyeon26/Movie-App/internal/model"
)

// ScreenRepo manages persistence for screenings. All timestamps are
// stored as DATETIME in UTC; the driver's parseTime option scans them
// directly into time.Time.
type ScreenRepo struct {
	db *sql.DB
}

// NewScreenRepo constructs a ScreenRepo with the given DB handle.
func NewScreenRepo(db *sql.DB) *ScreenRepo {
	return &ScreenRepo{db: db}
}

// DB exposes the underlying sql.DB for multi-repository transactions.
func (r *ScreenRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a new screening and assigns the generated ID back to
// the struct. The handler validates that the movie exists and that
// StartTime precedes EndTime before calling.
func (r *ScreenRepo) Create(ctx context.Context, s *model.Screen) error {
	const q = `INSERT INTO screens (movie_id, theater_name, start_time, end_time) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.TheaterName, s.StartTime.UTC(), s.EndTime.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a screening by its ID. It returns ErrScreenNotFound
// if there is no matching row.
func (r *ScreenRepo) GetByID(ctx context.Context, id uint64) (*model.Screen, error) {
	const q = `SELECT screen_id, movie_id, theater_name, start_time, end_time FROM screens WHERE screen_id = ?`
	var s model.Screen
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.MovieID, &s.TheaterName, &s.StartTime, &s.EndTime)
	if err == sql.ErrNoRows {
		return nil, ErrScreenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByIDTx is GetByID scoped to a caller-managed transaction. The
// booking path uses it so the screening read participates in the same
// serializable transaction as the seat-conflict check.
func (r *ScreenRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Screen, error) {
	const q = `SELECT screen_id, movie_id, theater_name, start_time, end_time FROM screens WHERE screen_id = ?`
	var s model.Screen
	err := tx.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.MovieID, &s.TheaterName, &s.StartTime, &s.EndTime)
	if err == sql.ErrNoRows {
		return nil, ErrScreenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all screenings ordered by start time.
func (r *ScreenRepo) List(ctx context.Context) ([]model.Screen, error) {
	const q = `SELECT screen_id, movie_id, theater_name, start_time, end_time FROM screens ORDER BY start_time`
	return r.scanScreens(ctx, q)
}

// ListByMovie returns all screenings of one movie ordered by start time.
func (r *ScreenRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Screen, error) {
	const q = `SELECT screen_id, movie_id, theater_name, start_time, end_time FROM screens WHERE movie_id = ? ORDER BY start_time`
	return r.scanScreens(ctx, q, movieID)
}

func (r *ScreenRepo) scanScreens(ctx context.Context, q string, args ...interface{}) ([]model.Screen, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Screen, 0)
	for rows.Next() {
		var s model.Screen
		if err := rows.Scan(&s.ID, &s.MovieID, &s.TheaterName, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update overwrites the editable columns of a screening. It returns
// ErrScreenNotFound when the row does not exist.
func (r *ScreenRepo) Update(ctx context.Context, s *model.Screen) error {
	const q = `UPDATE screens SET movie_id = ?, theater_name = ?, start_time = ?, end_time = ? WHERE screen_id = ?`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.TheaterName, s.StartTime.UTC(), s.EndTime.UTC(), s.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists uint64
		if err := r.db.QueryRowContext(ctx, `SELECT screen_id FROM screens WHERE screen_id = ?`, s.ID).Scan(&exists); err == sql.ErrNoRows {
			return ErrScreenNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// HasReservations reports whether any reservation (of either status)
// still references the screening. Screening deletion is blocked while
// this holds so booking history is never orphaned.
func (r *ScreenRepo) HasReservations(ctx context.Context, screenID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reservations WHERE screen_id = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, screenID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Delete removes a screening row. Callers must check HasReservations
// first; ErrScreenNotFound is returned when no row was deleted.
func (r *ScreenRepo) Delete(ctx context.Context, screenID uint64) error {
	const q = `DELETE FROM screens WHERE screen_id = ?`
	res, err := r.db.ExecContext(ctx, q, screenID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScreenNotFound
	}
	return nil
}
