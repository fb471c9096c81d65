package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/validation"
)

const unknownFieldPrefix = "json: unknown field "

// CustomBinder はJSONボディを厳密にバインドする
// 未知のプロパティと型違いは validation.Errors として返す
type CustomBinder struct {
	fallback echo.DefaultBinder
}

// NewBinder は新しいバインダーを作成する
func NewBinder() *CustomBinder {
	return &CustomBinder{}
}

// Bind は echo.Binder を満たす。JSON以外のボディは既定のバインダーに任せる
func (b *CustomBinder) Bind(i interface{}, c echo.Context) error {
	req := c.Request()
	if req.ContentLength == 0 {
		return nil
	}
	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return b.fallback.BindBody(c, i)
	}

	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(i); err != nil && !errors.Is(err, io.EOF) {
		return bindError(i, err)
	}
	return nil
}

func bindError(i interface{}, err error) error {
	var errs validation.Errors

	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		errs.Add(ute.Field, typeMessage(i, ute.Field))
		return errs
	}
	if name, ok := strings.CutPrefix(err.Error(), unknownFieldPrefix); ok {
		if unquoted, uerr := strconv.Unquote(name); uerr == nil {
			name = unquoted
		}
		errs.Add(name, fmt.Sprintf("property %s should not exist", name))
		return errs
	}
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
}

// typeMessage は json 名が field のフィールドの msg タグ "type=..." を返す
func typeMessage(i interface{}, field string) string {
	t := reflect.TypeOf(i)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		for n := 0; n < t.NumField(); n++ {
			sf := t.Field(n)
			if strings.SplitN(sf.Tag.Get("json"), ",", 2)[0] != field {
				continue
			}
			if msg, ok := tagMessage(sf, "type"); ok {
				return msg
			}
		}
	}
	return field + " has an invalid type"
}
