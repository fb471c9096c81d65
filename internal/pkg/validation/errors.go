package validation

import (
	"errors"
	"strings"
)

// ErrValidation は入力検証エラーを表すセンチネル
// errors.Is(err, ErrValidation) で Errors を判定できる
var ErrValidation = errors.New("Validation failed")

// FieldError は1フィールド分の検証エラー
type FieldError struct {
	Field  string   `json:"field"`
	Errors []string `json:"errors"`
}

// Errors はフィールド単位の検証エラー一覧
type Errors []FieldError

// Error は error インターフェースを満たす
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+strings.Join(fe.Errors, ", "))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is は ErrValidation との比較を可能にする
func (e Errors) Is(target error) bool {
	return target == ErrValidation
}

// Add はフィールドにメッセージを追加する。同じフィールドは1エントリにまとめる
func (e *Errors) Add(field, message string) {
	for i := range *e {
		if (*e)[i].Field == field {
			(*e)[i].Errors = append((*e)[i].Errors, message)
			return
		}
	}
	*e = append(*e, FieldError{Field: field, Errors: []string{message}})
}

// Err はエラーが1件以上あれば自身を、なければ nil を返す
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// As は err から Errors を取り出す
func As(err error) (Errors, bool) {
	var ve Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
