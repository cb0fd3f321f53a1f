package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Chaeyeon26/Movie-App/internal/model"
	"github.com/Chaeyeon26/Movie-App/internal/queue"
	"github.com/Chaeyeon26/Movie-App/internal/repository"
	queue_publisher "github.com/Chaeyeon26/Movie-App/internal/service"
	"github.com/Chaeyeon26/Movie-App/internal/utils"
)

// ReservationHandler groups the repositories needed to book, cancel and
// list seat reservations. JWT authentication has already run by the
// time these methods execute; methods return 401 if no user ID can be
// extracted from the context.
//
// Both booking paths run their conflict check and insert inside a
// SERIALIZABLE transaction holding FOR UPDATE locks on the screening's
// reserved rows. That is what guarantees two concurrent requests for
// overlapping seats can never both commit.
type ReservationHandler struct {
	ReservationRepo *repository.ReservationRepo
	ScreenRepo      *repository.ScreenRepo
	MovieRepo       *repository.MovieRepo
}

// NewReservationHandler constructs a ReservationHandler with the
// provided repositories. All dependencies must be non-nil.
func NewReservationHandler(resRepo *repository.ReservationRepo, screenRepo *repository.ScreenRepo, movieRepo *repository.MovieRepo) *ReservationHandler {
	if resRepo == nil || screenRepo == nil || movieRepo == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{ReservationRepo: resRepo, ScreenRepo: screenRepo, MovieRepo: movieRepo}
}

type reservationResp struct {
	ID         uint64    `json:"reservation_id"`
	UserID     uint64    `json:"user_id"`
	ScreenID   uint64    `json:"screen_id"`
	SeatNumber string    `json:"seat_number"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	return reservationResp{
		ID:         r.ID,
		UserID:     r.UserID,
		ScreenID:   r.ScreenID,
		SeatNumber: r.SeatNumber,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
	}
}

// Reserve handles POST /v1/reservations. It books a single seat for a
// screening. The seat code is any non-empty string; the grid shape
// (rows A-E, columns 1-10 in the reference UI) is a client concern.
//
// A cancelled reservation for the exact (screening, seat) pair is
// revived instead of inserting a new row: status flips back to
// reserved and the row is reassigned to the caller, keeping the
// original reservation_id and created_at.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var body struct {
		ScreenID   uint64 `json:"screen_id"`
		SeatNumber string `json:"seat_number"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	seats := utils.DedupeSeats([]string{body.SeatNumber})
	if body.ScreenID == 0 || len(seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "screen_id and seat_number are required"})
	}
	seat := seats[0]

	ctx := c.Request().Context()
	tx, err := h.ReservationRepo.DB().BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	screen, err := h.ScreenRepo.GetByIDTx(ctx, tx, body.ScreenID)
	if err != nil {
		if errors.Is(err, repository.ErrScreenNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "screen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if !bookingOpen(time.Now().UTC(), screen.StartTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "screening has already started; booking is closed"})
	}

	// Scan every reserved row and split comma-joined groups: a seat
	// inside a multi-seat group blocks a single-seat booking too.
	reserved, err := h.ReservationRepo.ListReservedForUpdateTx(ctx, tx, screen.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to check seat availability"})
	}
	if taken := firstConflict(reserved, []string{seat}); taken != "" {
		return c.JSON(http.StatusConflict, echo.Map{"message": "seat " + taken + " is already booked"})
	}

	// Revival: reuse a cancelled row for the exact seat if one exists.
	existing, err := h.ReservationRepo.GetByScreenAndSeatTx(ctx, tx, screen.ID, seat)
	revived := false
	var result *model.Reservation
	switch {
	case err == nil && existing.Status == model.ReservationCancelled:
		if err := h.ReservationRepo.ReviveTx(ctx, tx, existing.ID, userID); err != nil {
			if lockConflict(err) {
				return c.JSON(http.StatusConflict, echo.Map{"message": "seat " + seat + " is already booked"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to revive reservation"})
		}
		existing.Status = model.ReservationReserved
		existing.UserID = userID
		result = existing
		revived = true
	case err == nil:
		// A reserved row with this exact seat_number should have been
		// caught by the conflict scan above.
		return c.JSON(http.StatusConflict, echo.Map{"message": "seat " + seat + " is already booked"})
	case errors.Is(err, repository.ErrReservationNotFound):
		res := &model.Reservation{UserID: userID, ScreenID: screen.ID, SeatNumber: seat}
		if err := h.ReservationRepo.CreateTx(ctx, tx, res); err != nil {
			if lockConflict(err) {
				return c.JSON(http.StatusConflict, echo.Map{"message": "seat " + seat + " is already booked"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create reservation"})
		}
		result = res
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to commit transaction"})
	}
	committed = true

	h.publishConfirmed(result, screen, revived)

	status := http.StatusCreated
	msg := "reservation confirmed"
	if revived {
		status = http.StatusOK
		msg = "cancelled seat booked again"
	}
	return c.JSON(status, echo.Map{"message": msg, "reservation": toReservationResp(result)})
}

// ReserveMany handles POST /v1/reservations/multi. It books several
// seats as one atomic group: a single reservation row whose
// seat_number is the comma-joined list in input order. The group is
// cancelled as a whole; there is no per-seat cancellation.
func (h *ReservationHandler) ReserveMany(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var body struct {
		ScreenID    uint64   `json:"screen_id"`
		SeatNumbers []string `json:"seat_numbers"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	seats := utils.DedupeSeats(body.SeatNumbers)
	if len(seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "no seats selected"})
	}
	if body.ScreenID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "screen_id is required"})
	}

	ctx := c.Request().Context()
	tx, err := h.ReservationRepo.DB().BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	screen, err := h.ScreenRepo.GetByIDTx(ctx, tx, body.ScreenID)
	if err != nil {
		if errors.Is(err, repository.ErrScreenNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "screen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if !bookingOpen(time.Now().UTC(), screen.StartTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "screening has already started; booking is closed"})
	}

	reserved, err := h.ReservationRepo.ListReservedForUpdateTx(ctx, tx, screen.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to check seat availability"})
	}
	if taken := firstConflict(reserved, seats); taken != "" {
		return c.JSON(http.StatusConflict, echo.Map{"message": "seat " + taken + " is already booked"})
	}

	res := &model.Reservation{UserID: userID, ScreenID: screen.ID, SeatNumber: utils.JoinSeats(seats)}
	if err := h.ReservationRepo.CreateTx(ctx, tx, res); err != nil {
		if lockConflict(err) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "seat " + seats[0] + " is already booked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create reservation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to commit transaction"})
	}
	committed = true

	h.publishConfirmed(res, screen, false)

	return c.JSON(http.StatusCreated, echo.Map{"message": "seats booked", "reservation": toReservationResp(res)})
}

// firstConflict returns the first requested seat (in request order)
// that collides with any seat held by an existing reserved-status
// reservation, splitting stored comma-joined groups. Empty string
// means no conflict.
func firstConflict(reserved []model.Reservation, requested []string) string {
	held := make(map[string]struct{})
	for _, r := range reserved {
		for _, s := range utils.SplitSeats(r.SeatNumber) {
			held[s] = struct{}{}
		}
	}
	for _, s := range requested {
		if _, ok := held[s]; ok {
			return s
		}
	}
	return ""
}

// Cancel handles DELETE /v1/reservations/:id. Cancellation closes 30
// minutes before the screening starts; the boundary is inclusive, so a
// cancel at exactly 30:00 before start succeeds. On success the status
// flips to cancelled and the seats become available for new bookings.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	reservationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || reservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid reservation id"})
	}
	ctx := c.Request().Context()

	res, screen, err := h.ReservationRepo.GetWithScreen(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "database error"})
	}
	if res.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	if res.Status == model.ReservationCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"message": "reservation is already cancelled"})
	}
	if !cancelAllowed(time.Now().UTC(), screen.StartTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "too late to cancel: less than 30 minutes before the screening"})
	}
	if err := h.ReservationRepo.Cancel(ctx, reservationID); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "reservation is already cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to cancel reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation cancelled"})
}

// ReservedSeats handles GET /v1/screens/:id/seats. It returns the seat
// codes of all reserved-status reservations for a screening, with
// comma-joined groups split, so clients can grey out taken seats.
func (h *ReservationHandler) ReservedSeats(c echo.Context) error {
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
	seats, err := h.ReservationRepo.ListReservedSeats(ctx, screenID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats})
}

// UserReservations handles GET /v1/reservations/user/:id. It lists the
// user's active reservations, newest first, optionally filtered by
// movie-title substring (?title=) and screening day (?date=YYYY-MM-DD,
// inclusive). Users may only view their own history; admins may view
// anyone's.
func (h *ReservationHandler) UserReservations(c echo.Context) error {
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
	var day *time.Time
	if raw := c.QueryParam("date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date; expected YYYY-MM-DD"})
		}
		day = &t
	}
	list, err := h.ReservationRepo.ListByUser(c.Request().Context(), targetID, c.QueryParam("title"), day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, list)
}

// publishConfirmed emits a booking.confirmed event for downstream
// consumers. Failures are logged and ignored; the booking itself has
// already committed.
func (h *ReservationHandler) publishConfirmed(res *model.Reservation, screen *model.Screen, revived bool) {
	event := queue.BookingConfirmedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		ScreenID:      screen.ID,
		MovieID:       screen.MovieID,
		TheaterName:   screen.TheaterName,
		StartTime:     screen.StartTime.Format(time.RFC3339),
		EndTime:       screen.EndTime.Format(time.RFC3339),
		Seats:         utils.SplitSeats(res.SeatNumber),
		Revived:       revived,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if movie, err := h.MovieRepo.GetByID(context.Background(), screen.MovieID); err == nil {
		event.MovieTitle = movie.Title
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue_publisher.PublishBookingConfirmed(ctx, event); err != nil {
			log.Printf("booking event publish failed: %v", err)
		}
	}()
}
