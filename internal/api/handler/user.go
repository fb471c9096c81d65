package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/application"
)

type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(s UserServiceInterface) *UserHandler {
	return &UserHandler{service: s}
}

type CreateUserRequest struct {
	Name    string `json:"name" validate:"required,max=100" msg:"type=Name must be a string;required=Name is required;max=Name must not exceed 100 characters" example:"山田太郎"`
	Email   string `json:"email" validate:"required,email" msg:"type=Email must be a string;required=Email is required;email=Invalid email format" example:"taro@example.com"`
	IsAdmin bool   `json:"isAdmin" msg:"type=isAdmin must be a boolean" example:"false"`
}

// Create godoc
// @Summary ユーザーを作成
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "ユーザー情報"
// @Success 201 {object} UserResponse
// @Failure 400 {object} api.ValidationErrorResponse
// @Failure 409 {object} api.ErrorResponse "メールアドレス重複"
// @Router /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	u, err := h.service.Create(c.Request().Context(), application.CreateUserInput{
		Name: req.Name, Email: req.Email, IsAdmin: req.IsAdmin,
	})
	if err != nil {
		return toHTTPError(err, resourceIDs{})
	}
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// List godoc
// @Summary ユーザー一覧を取得
// @Tags users
// @Produce json
// @Success 200 {array} UserDetailResponse
// @Router /users [get]
func (h *UserHandler) List(c echo.Context) error {
	ds, err := h.service.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]UserDetailResponse, len(ds))
	for i, d := range ds {
		resp[i] = toUserDetailResponse(d)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary ユーザーを取得
// @Tags users
// @Produce json
// @Param id path int true "ユーザーID"
// @Success 200 {object} UserDetailResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.service.FindOne(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err, resourceIDs{userID: id})
	}
	return c.JSON(http.StatusOK, toUserDetailResponse(d))
}

// Delete godoc
// @Summary ユーザーを削除
// @Description 予約が残っている場合は削除できません
// @Tags users
// @Produce json
// @Param id path int true "ユーザーID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Remove(c.Request().Context(), id); err != nil {
		return toHTTPError(err, resourceIDs{userID: id})
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}
