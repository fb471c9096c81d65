package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/validation"
)

// CustomValidator はEcho用のカスタムバリデーター
// フィールド名は json タグ、メッセージは msg タグ（"tag=メッセージ;..."）から取る
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator は新しいバリデーターを作成する
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate はリクエストのバリデーションを実行する
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	t := reflect.TypeOf(i)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var errs validation.Errors
	for _, fe := range ves {
		errs.Add(fe.Field(), message(t, fe))
	}
	return errs.Err()
}

func message(t reflect.Type, fe validator.FieldError) string {
	if sf, ok := t.FieldByName(fe.StructField()); ok {
		if msg, ok := tagMessage(sf, fe.Tag()); ok {
			return msg
		}
	}
	return fe.Error()
}

// tagMessage は msg タグから tag に対応するメッセージを取り出す
func tagMessage(sf reflect.StructField, tag string) (string, bool) {
	for _, pair := range strings.Split(sf.Tag.Get("msg"), ";") {
		key, msg, found := strings.Cut(pair, "=")
		if found && strings.TrimSpace(key) == tag {
			return msg, true
		}
	}
	return "", false
}
