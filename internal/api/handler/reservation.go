package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/application"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type CreateReservationRequest struct {
	UserID    int64 `json:"userId" validate:"required,gt=0" msg:"type=User ID must be a number;required=User ID is required;gt=User ID must be a positive number" example:"1"`
	ConcertID int64 `json:"concertId" validate:"required,gt=0" msg:"type=Concert ID must be a number;required=Concert ID is required;gt=Concert ID must be a positive number" example:"1"`
}

// CancelReservationRequest の userId は数値または数値文字列を受け付ける
type CancelReservationRequest struct {
	UserID json.Number `json:"userId" example:"1"`
}

// Create godoc
// @Summary 予約を作成
// @Description 1ユーザーにつき1コンサート1件まで予約できます
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse "満席"
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "予約済み"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	var req CreateReservationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	d, err := h.service.Create(c.Request().Context(), application.CreateReservationInput{
		UserID: req.UserID, ConcertID: req.ConcertID,
	})
	if err != nil {
		return toHTTPError(err, resourceIDs{concertID: req.ConcertID, userID: req.UserID})
	}
	return c.JSON(http.StatusCreated, toReservationDetailResponse(d))
}

// List godoc
// @Summary 予約一覧を取得
// @Tags reservations
// @Produce json
// @Success 200 {array} ReservationResponse
// @Router /reservations [get]
func (h *ReservationHandler) List(c echo.Context) error {
	ds, err := h.service.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationDetailResponses(ds))
}

// GetUserReservations godoc
// @Summary ユーザーの予約一覧を取得
// @Tags reservations
// @Produce json
// @Param userId path int true "ユーザーID"
// @Success 200 {array} ReservationResponse
// @Router /reservations/user/{userId} [get]
func (h *ReservationHandler) GetUserReservations(c echo.Context) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	ds, err := h.service.FindByUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationDetailResponses(ds))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 本人の有効な予約のみキャンセルできます
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path int true "予約ID"
// @Param request body CancelReservationRequest true "キャンセルするユーザー"
// @Success 200 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id}/cancel [patch]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req CancelReservationRequest
	// userId 以外のプロパティは無視する
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgNumericExpected)
	}
	userID, err := strconv.ParseInt(req.UserID.String(), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgNumericExpected)
	}
	d, err := h.service.Cancel(c.Request().Context(), application.CancelReservationInput{
		ReservationID: id, UserID: userID,
	})
	if err != nil {
		return toHTTPError(err, resourceIDs{reservationID: id, userID: userID})
	}
	return c.JSON(http.StatusOK, toReservationDetailResponse(d))
}
