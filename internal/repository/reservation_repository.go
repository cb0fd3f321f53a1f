package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Chaeyeon26/Movie-App/internal/model"
	"github.com/Chaeyeon26/Movie-App/internal/utils"
)

// ReservationRepo provides persistence for seat reservations. A single
// row holds either one seat code or a comma-joined group booked
// atomically; the booking handlers wrap the conflict check and insert
// in a serializable transaction so two concurrent requests for
// overlapping seats can never both commit. All timestamps are UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying sql.DB so handlers can begin transactions
// spanning the screening read, the conflict check and the insert.
func (r *ReservationRepo) DB() *sql.DB {
	return r.db
}

// ListReservedForUpdateTx returns every reserved-status reservation for
// a screening, locking the rows with FOR UPDATE. The booking path calls
// it inside a serializable transaction before checking seat conflicts,
// which makes check-then-insert atomic across concurrent requests.
func (r *ReservationRepo) ListReservedForUpdateTx(ctx context.Context, tx *sql.Tx, screenID uint64) ([]model.Reservation, error) {
	const q = `SELECT reservation_id, user_id, screen_id, seat_number, status, created_at
	           FROM reservations
	           WHERE screen_id = ? AND status = 'reserved'
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, screenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.ScreenID, &res.SeatNumber, &res.Status, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// GetByScreenAndSeatTx looks up the reservation whose seat_number column
// exactly equals the given code, regardless of status. The single-seat
// booking path uses it to find a cancelled row to revive. Returns
// ErrReservationNotFound when no such row exists.
func (r *ReservationRepo) GetByScreenAndSeatTx(ctx context.Context, tx *sql.Tx, screenID uint64, seat string) (*model.Reservation, error) {
	const q = `SELECT reservation_id, user_id, screen_id, seat_number, status, created_at
	           FROM reservations
	           WHERE screen_id = ? AND seat_number = ?
	           LIMIT 1
	           FOR UPDATE`
	var res model.Reservation
	err := tx.QueryRowContext(ctx, q, screenID, seat).Scan(&res.ID, &res.UserID, &res.ScreenID, &res.SeatNumber, &res.Status, &res.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateTx inserts a new reservation within the caller's transaction
// and populates the generated ID and created_at on the given record.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, screen_id, seat_number) VALUES (?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.UserID, res.ScreenID, res.SeatNumber)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the row to populate DB defaults (status, created_at).
	const sel = `SELECT reservation_id, user_id, screen_id, seat_number, status, created_at
	             FROM reservations WHERE reservation_id = ?`
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(
		&res.ID, &res.UserID, &res.ScreenID, &res.SeatNumber, &res.Status, &res.CreatedAt,
	)
}

// ReviveTx flips a cancelled reservation back to reserved and reassigns
// it to the new user. The original reservation_id and created_at are
// deliberately preserved (reuse-of-row policy).
func (r *ReservationRepo) ReviveTx(ctx context.Context, tx *sql.Tx, reservationID, userID uint64) error {
	const q = `UPDATE reservations SET status = 'reserved', user_id = ? WHERE reservation_id = ? AND status = 'cancelled'`
	res, err := tx.ExecContext(ctx, q, userID, reservationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// GetWithScreen returns a reservation together with its screening.
// Both the cancellation and review paths need the screening's start or
// end time to evaluate their time windows.
func (r *ReservationRepo) GetWithScreen(ctx context.Context, reservationID uint64) (*model.Reservation, *model.Screen, error) {
	const q = `SELECT r.reservation_id, r.user_id, r.screen_id, r.seat_number, r.status, r.created_at,
	                  s.screen_id, s.movie_id, s.theater_name, s.start_time, s.end_time
	           FROM reservations r
	           JOIN screens s ON s.screen_id = r.screen_id
	           WHERE r.reservation_id = ?`
	var res model.Reservation
	var scr model.Screen
	err := r.db.QueryRowContext(ctx, q, reservationID).Scan(
		&res.ID, &res.UserID, &res.ScreenID, &res.SeatNumber, &res.Status, &res.CreatedAt,
		&scr.ID, &scr.MovieID, &scr.TheaterName, &scr.StartTime, &scr.EndTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return &res, &scr, nil
}

// Cancel flips a reservation's status to cancelled. The row is kept so
// history survives and the seat becomes revivable. ErrReservationNotFound
// is returned when the row does not exist or is already cancelled.
func (r *ReservationRepo) Cancel(ctx context.Context, reservationID uint64) error {
	const q = `UPDATE reservations SET status = 'cancelled' WHERE reservation_id = ? AND status = 'reserved'`
	res, err := r.db.ExecContext(ctx, q, reservationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// ListReservedSeats returns the individual seat codes held by
// reserved-status reservations for a screening. Comma-joined groups are
// split so the booking UI can grey out every taken seat.
func (r *ReservationRepo) ListReservedSeats(ctx context.Context, screenID uint64) ([]string, error) {
	const q = `SELECT seat_number FROM reservations WHERE screen_id = ? AND status = 'reserved'`
	rows, err := r.db.QueryContext(ctx, q, screenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]string, 0)
	for rows.Next() {
		var sn string
		if err := rows.Scan(&sn); err != nil {
			return nil, err
		}
		seats = append(seats, utils.SplitSeats(sn)...)
	}
	return seats, rows.Err()
}

// UserReservationDetail is a reservation joined with its screening and
// movie for the booking-history page.
type UserReservationDetail struct {
	ID          uint64    `json:"reservation_id"`
	ScreenID    uint64    `json:"screen_id"`
	SeatNumber  string    `json:"seat_number"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	TheaterName string    `json:"theater_name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MovieID     uint64    `json:"movie_id"`
	MovieTitle  string    `json:"movie_title"`
}

// ListByUser returns the user's reserved-status reservations, newest
// first, optionally filtered by movie-title substring and by screening
// day (inclusive range covering the whole day). The INNER JOINs drop
// reservations whose screening or movie row is missing.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, title string, day *time.Time) ([]UserReservationDetail, error) {
	q := `SELECT r.reservation_id, r.screen_id, r.seat_number, r.status, r.created_at,
	             s.theater_name, s.start_time, s.end_time,
	             m.movie_id, m.title
	      FROM reservations r
	      JOIN screens s ON s.screen_id = r.screen_id
	      JOIN movies m ON m.movie_id = s.movie_id
	      WHERE r.user_id = ? AND r.status = 'reserved'`
	args := []interface{}{userID}
	if title != "" {
		q += ` AND m.title LIKE ?`
		args = append(args, "%"+title+"%")
	}
	if day != nil {
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24*time.Hour - time.Second)
		q += ` AND s.start_time BETWEEN ? AND ?`
		args = append(args, dayStart, dayEnd)
	}
	q += ` ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]UserReservationDetail, 0)
	for rows.Next() {
		var d UserReservationDetail
		if err := rows.Scan(
			&d.ID, &d.ScreenID, &d.SeatNumber, &d.Status, &d.CreatedAt,
			&d.TheaterName, &d.StartTime, &d.EndTime,
			&d.MovieID, &d.MovieTitle,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
