package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chaeyeon26/Movie-App/internal/model"
	"github.com/Chaeyeon26/Movie-App/internal/repository"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newReservationHandler(db *sql.DB) *ReservationHandler {
	return NewReservationHandler(
		repository.NewReservationRepo(db),
		repository.NewScreenRepo(db),
		repository.NewMovieRepo(db),
	)
}

// jsonCtx builds an Echo context carrying an authenticated user.
func jsonCtx(method, target, body string, userID uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(userID)) // JWT claims decode numbers as float64
	c.Set("role", role)
	return c, rec
}

func respMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["message"].(string)
	return msg
}

var (
	screenCols  = []string{"screen_id", "movie_id", "theater_name", "start_time", "end_time"}
	reserveCols = []string{"reservation_id", "user_id", "screen_id", "seat_number", "status", "created_at"}
	movieCols   = []string{"movie_id", "title", "genre", "release_year", "summary", "poster_url", "avg_rating"}
)

func expectScreenInTx(mock sqlmock.Sqlmock, id uint64, start, end time.Time) {
	mock.ExpectQuery(`SELECT screen_id, movie_id, theater_name, start_time, end_time FROM screens`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(screenCols).AddRow(id, 3, "Theater 1", start, end))
}

func TestReserveNewSeat(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	created := time.Now().UTC()

	mock.ExpectBegin()
	expectScreenInTx(mock, 7, start, start.Add(2*time.Hour))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(reserveCols))
	mock.ExpectQuery(`WHERE screen_id = \? AND seat_number = \?`).
		WithArgs(uint64(7), "A1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(uint64(10), uint64(7), "A1").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(`FROM reservations WHERE reservation_id = \?`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(reserveCols).AddRow(42, 10, 7, "A1", model.ReservationReserved, created))
	mock.ExpectCommit()
	// Event enrichment after commit.
	mock.ExpectQuery(`FROM movies WHERE movie_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(movieCols).AddRow(3, "Dune", "sci-fi", 2021, "", "", 4.5))

	c, rec := jsonCtx(http.MethodPost, "/v1/reservations", `{"screen_id":7,"seat_number":"A1"}`, 10, "user")
	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "reservation confirmed", respMessage(t, rec))
}

func TestReserveSeatTaken(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	mock.ExpectBegin()
	expectScreenInTx(mock, 7, start, start.Add(2*time.Hour))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(reserveCols).
			AddRow(1, 99, 7, "A1", model.ReservationReserved, time.Now().UTC()))
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/v1/reservations", `{"screen_id":7,"seat_number":"A1"}`, 10, "user")
	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "seat A1 is already booked", respMessage(t, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatInsideGroupConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	mock.ExpectBegin()
	expectScreenInTx(mock, 7, start, start.Add(2*time.Hour))
	// A2 is held inside a comma-joined group booking.
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(reserveCols).
			AddRow(1, 99, 7, "A1,A2,A3", model.ReservationReserved, time.Now().UTC()))
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/v1/reservations", `{"screen_id":7,"seat_number":"A2"}`, 10, "user")
	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "seat A2 is already booked", respMessage(t, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveRevivesCancelledRow(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	created := time.Now().UTC().Add(-24 * time.Hour)

	mock.ExpectBegin()
	expectScreenInTx(mock, 7, start, start.Add(2*time.Hour))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(reserveCols))
	mock.ExpectQuery(`WHERE screen_id = \? AND seat_number = \?`).
		WithArgs(uint64(7), "A1").
		WillReturnRows(sqlmock.NewRows(reserveCols).
			AddRow(42, 99, 7, "A1", model.ReservationCancelled, created))
	mock.ExpectExec(`UPDATE reservations SET status = 'reserved'`).
		WithArgs(uint64(10), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM movies WHERE movie_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(movieCols).AddRow(3, "Dune", "sci-fi", 2021, "", "", 4.5))

	c, rec := jsonCtx(http.MethodPost, "/v1/reservations", `{"screen_id":7,"seat_number":"A1"}`, 10, "user")
	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled seat booked again", respMessage(t, rec))

	var body struct {
		Reservation reservationResp `json:"reservation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// Revival keeps the original row identity.
	assert.Equal(t, uint64(42), body.Reservation.ID)
	assert.Equal(t, uint64(10), body.Reservation.UserID)
	assert.Equal(t, model.ReservationReserved, body.Reservation.Status)
	assert.WithinDuration(t, created, body.Reservation.CreatedAt, time.Second)
}

func TestReserveAfterStartRejected(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(-time.Minute)
	mock.ExpectBegin()
	expectScreenInTx(mock, 7, start, start.Add(2*time.Hour))
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/v1/reservations", `{"screen_id":7,"seat_number":"A1"}`, 10, "user")
	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveManyNamesFirstConflict(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	mock.ExpectBegin()
	expectScreenInTx(mock, 7, start, start.Add(2*time.Hour))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(reserveCols).
			AddRow(1, 99, 7, "A2,A3", model.ReservationReserved, time.Now().UTC()))
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/v1/reservations/multi",
		`{"screen_id":7,"seat_numbers":["B1","A2","A3"]}`, 10, "user")
	require.NoError(t, h.ReserveMany(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	// First colliding seat in request order, not storage order.
	assert.Equal(t, "seat A2 is already booked", respMessage(t, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveManyBooksGroupAsOneRow(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	created := time.Now().UTC()

	mock.ExpectBegin()
	expectScreenInTx(mock, 7, start, start.Add(2*time.Hour))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(reserveCols))
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(uint64(10), uint64(7), "B1,B2,B3").
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectQuery(`FROM reservations WHERE reservation_id = \?`).
		WithArgs(uint64(43)).
		WillReturnRows(sqlmock.NewRows(reserveCols).AddRow(43, 10, 7, "B1,B2,B3", model.ReservationReserved, created))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM movies WHERE movie_id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(movieCols).AddRow(3, "Dune", "sci-fi", 2021, "", "", 4.5))

	c, rec := jsonCtx(http.MethodPost, "/v1/reservations/multi",
		`{"screen_id":7,"seat_numbers":["B1","B2","B3","B2"]}`, 10, "user")
	require.NoError(t, h.ReserveMany(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Reservation reservationResp `json:"reservation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "B1,B2,B3", body.Reservation.SeatNumber)
}

func expectReservationWithScreen(mock sqlmock.Sqlmock, resID, ownerID uint64, status string, start time.Time) {
	cols := []string{
		"reservation_id", "user_id", "screen_id", "seat_number", "status", "created_at",
		"screen_id", "movie_id", "theater_name", "start_time", "end_time",
	}
	mock.ExpectQuery(`JOIN screens s ON s\.screen_id = r\.screen_id`).
		WithArgs(resID).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(resID, ownerID, 7, "A1", status, time.Now().UTC(),
				7, 3, "Theater 1", start, start.Add(2*time.Hour)))
}

func TestCancelBeforeCutoff(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	expectReservationWithScreen(mock, 42, 10, model.ReservationReserved, start)
	mock.ExpectExec(`UPDATE reservations SET status = 'cancelled'`).
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := jsonCtx(http.MethodDelete, "/v1/reservations/42", "", 10, "user")
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelInsideCutoffRejected(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	// 29 minutes before start is past the 30-minute cutoff.
	start := time.Now().UTC().Add(29 * time.Minute)
	expectReservationWithScreen(mock, 42, 10, model.ReservationReserved, start)

	c, rec := jsonCtx(http.MethodDelete, "/v1/reservations/42", "", 10, "user")
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "too late to cancel: less than 30 minutes before the screening", respMessage(t, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelForeignReservationForbidden(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	expectReservationWithScreen(mock, 42, 99, model.ReservationReserved, start)

	c, rec := jsonCtx(http.MethodDelete, "/v1/reservations/42", "", 10, "user")
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAsAdminAllowed(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	expectReservationWithScreen(mock, 42, 99, model.ReservationReserved, start)
	mock.ExpectExec(`UPDATE reservations SET status = 'cancelled'`).
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := jsonCtx(http.MethodDelete, "/v1/reservations/42", "", 10, "admin")
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAlreadyCancelled(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	expectReservationWithScreen(mock, 42, 10, model.ReservationCancelled, start)

	c, rec := jsonCtx(http.MethodDelete, "/v1/reservations/42", "", 10, "user")
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Two transactions racing for the same free seat both pass the FOR
// UPDATE scan; InnoDB then deadlocks the inserts and rolls one back
// with error 1213. The loser must see a seat conflict, not a 500.
func TestReserveDeadlockLoserGetsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	mock.ExpectBegin()
	expectScreenInTx(mock, 7, start, start.Add(2*time.Hour))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(reserveCols))
	mock.ExpectQuery(`WHERE screen_id = \? AND seat_number = \?`).
		WithArgs(uint64(7), "A1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(uint64(10), uint64(7), "A1").
		WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock; try restarting transaction"})
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/v1/reservations", `{"screen_id":7,"seat_number":"A1"}`, 10, "user")
	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "seat A1 is already booked", respMessage(t, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveManyLockTimeoutGetsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	mock.ExpectBegin()
	expectScreenInTx(mock, 7, start, start.Add(2*time.Hour))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(reserveCols))
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(uint64(10), uint64(7), "B1,B2").
		WillReturnError(&mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded; try restarting transaction"})
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/v1/reservations/multi",
		`{"screen_id":7,"seat_numbers":["B1","B2"]}`, 10, "user")
	require.NoError(t, h.ReserveMany(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "seat B1 is already booked", respMessage(t, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A non-lock driver failure on insert must still surface as a server
// error, not be mistaken for a seat conflict.
func TestReserveInsertFailureIsServerError(t *testing.T) {
	db, mock := newMockDB(t)
	h := newReservationHandler(db)

	start := time.Now().UTC().Add(2 * time.Hour)
	mock.ExpectBegin()
	expectScreenInTx(mock, 7, start, start.Add(2*time.Hour))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(reserveCols))
	mock.ExpectQuery(`WHERE screen_id = \? AND seat_number = \?`).
		WithArgs(uint64(7), "A1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(uint64(10), uint64(7), "A1").
		WillReturnError(&mysql.MySQLError{Number: 1114, Message: "The table 'reservations' is full"})
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/v1/reservations", `{"screen_id":7,"seat_number":"A1"}`, 10, "user")
	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFirstConflict(t *testing.T) {
	reserved := []model.Reservation{
		{SeatNumber: "A1,A2"},
		{SeatNumber: "C5"},
	}
	assert.Equal(t, "", firstConflict(reserved, []string{"B1", "B2"}))
	assert.Equal(t, "A2", firstConflict(reserved, []string{"A2", "C5"}))
	assert.Equal(t, "C5", firstConflict(reserved, []string{"B1", "C5", "A1"}))
}
