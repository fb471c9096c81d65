package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/application"
)

type ConcertHandler struct {
	service ConcertServiceInterface
}

func NewConcertHandler(s ConcertServiceInterface) *ConcertHandler {
	return &ConcertHandler{service: s}
}

type CreateConcertRequest struct {
	Name        string `json:"name" validate:"required,max=200" msg:"type=Concert name must be a string;required=Concert name is required;max=Concert name must not exceed 200 characters" example:"Summer Live 2025"`
	Description string `json:"description" validate:"required,max=1000" msg:"type=Description must be a string;required=Description is required;max=Description must not exceed 1000 characters" example:"野外ステージ"`
	TotalSeats  int    `json:"totalSeats" validate:"min=1" msg:"type=Total seats must be a number;min=Total seats must be at least 1" example:"100"`
}

// Create godoc
// @Summary コンサートを作成
// @Tags concerts
// @Accept json
// @Produce json
// @Param request body CreateConcertRequest true "コンサート情報"
// @Success 201 {object} ConcertDetailResponse
// @Failure 400 {object} api.ValidationErrorResponse
// @Router /concerts [post]
func (h *ConcertHandler) Create(c echo.Context) error {
	var req CreateConcertRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	created, err := h.service.Create(c.Request().Context(), application.CreateConcertInput{
		Name: req.Name, Description: req.Description, TotalSeats: req.TotalSeats,
	})
	if err != nil {
		return toHTTPError(err, resourceIDs{})
	}
	return c.JSON(http.StatusCreated, toConcertDetailResponse(created))
}

// List godoc
// @Summary コンサート一覧を取得
// @Description 予約一覧を含めて新しい順に返します
// @Tags concerts
// @Produce json
// @Success 200 {array} ConcertDetailResponse
// @Router /concerts [get]
func (h *ConcertHandler) List(c echo.Context) error {
	concerts, err := h.service.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]ConcertDetailResponse, len(concerts))
	for i, con := range concerts {
		resp[i] = toConcertDetailResponse(con)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary コンサートを取得
// @Tags concerts
// @Produce json
// @Param id path int true "コンサートID"
// @Success 200 {object} ConcertDetailResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /concerts/{id} [get]
func (h *ConcertHandler) GetByID(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	con, err := h.service.FindOne(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err, resourceIDs{concertID: id})
	}
	return c.JSON(http.StatusOK, toConcertDetailResponse(con))
}

// GetAvailability godoc
// @Summary 空席状況を取得
// @Tags concerts
// @Produce json
// @Param id path int true "コンサートID"
// @Success 200 {object} concert.Availability
// @Failure 404 {object} api.ErrorResponse
// @Router /concerts/{id}/availability [get]
func (h *ConcertHandler) GetAvailability(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.service.Availability(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err, resourceIDs{concertID: id})
	}
	return c.JSON(http.StatusOK, a)
}

// Delete godoc
// @Summary コンサートを削除
// @Description 有効な予約がある場合は削除できません。キャンセル済みの予約は一緒に削除されます
// @Tags concerts
// @Produce json
// @Param id path int true "コンサートID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} api.ErrorResponse "有効な予約あり"
// @Failure 404 {object} api.ErrorResponse
// @Router /concerts/{id} [delete]
func (h *ConcertHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Remove(c.Request().Context(), id); err != nil {
		return toHTTPError(err, resourceIDs{concertID: id})
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Concert deleted successfully"})
}
