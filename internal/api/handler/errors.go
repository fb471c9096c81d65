package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/validation"
)

const msgNumericExpected = "Validation failed (numeric string is expected)"

// resourceIDs はエラーメッセージに埋め込むID
type resourceIDs struct {
	concertID     int64
	reservationID int64
	userID        int64
}

// toHTTPError はドメインエラーを HTTP エラーに変換する
// 想定外のエラーはそのまま返し、エラーハンドラーで 500 になる
func toHTTPError(err error, ids resourceIDs) error {
	if _, ok := validation.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, concert.ErrConcertNotFound):
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Concert with ID %d not found", ids.concertID))
	case errors.Is(err, reservation.ErrReservationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Reservation with ID %d not found", ids.reservationID))
	case errors.Is(err, user.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("User with ID %d not found", ids.userID))

	case errors.Is(err, concert.ErrConcertFullyBooked),
		errors.Is(err, concert.ErrConcertHasActiveReservations),
		errors.Is(err, reservation.ErrNotReservationOwner),
		errors.Is(err, reservation.ErrReservationAlreadyCancelled),
		errors.Is(err, reservation.ErrInvalidUserID),
		errors.Is(err, reservation.ErrInvalidConcertID):
		return echo.NewHTTPError(http.StatusBadRequest, rootMessage(err))

	case errors.Is(err, reservation.ErrDuplicateReservation),
		errors.Is(err, reservation.ErrReservationInProgress),
		errors.Is(err, user.ErrEmailAlreadyExists),
		errors.Is(err, user.ErrUserHasReservations):
		return echo.NewHTTPError(http.StatusConflict, rootMessage(err))
	}
	return err
}

// rootMessage はラップを外したセンチネルのメッセージを返す
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// parseID はパスパラメータを数値IDとして読み取る
func parseID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, msgNumericExpected)
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		if _, ok := validation.As(err); ok {
			return err
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(req)
}
