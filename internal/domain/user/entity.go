package user

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/validation"
)

const MaxNameLength = 100

var emailValidator = validator.New()

// User はユーザーエンティティを表す
type User struct {
	ID        int64
	Name      string
	Email     string
	IsAdmin   bool // 表示用のみ。認可には使わない
	CreatedAt time.Time
}

// NewUser は新しいユーザーを作成する
func NewUser(name, email string, isAdmin bool) *User {
	return &User{
		Name:      name,
		Email:     strings.TrimSpace(email),
		IsAdmin:   isAdmin,
		CreatedAt: time.Now(),
	}
}

// Validate はユーザーの検証を行う
func (u *User) Validate() error {
	return ValidateInput(u.Name, u.Email)
}

// ValidateInput は作成入力をフィールド単位で検証する
func ValidateInput(name, email string) error {
	var errs validation.Errors
	if strings.TrimSpace(name) == "" {
		errs.Add("name", "Name is required")
	} else if utf8.RuneCountInString(name) > MaxNameLength {
		errs.Add("name", "Name must not exceed 100 characters")
	}
	if strings.TrimSpace(email) == "" {
		errs.Add("email", "Email is required")
	} else if !IsValidEmail(email) {
		errs.Add("email", "Invalid email format")
	}
	return errs.Err()
}

// IsValidEmail はメールアドレスの形式を検証する
func IsValidEmail(email string) bool {
	return emailValidator.Var(email, "required,email") == nil
}
