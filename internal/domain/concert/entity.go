package concert

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/validation"
)

const (
	MaxNameLength        = 200
	MaxDescriptionLength = 1000
)

// Concert はコンサートエンティティを表す
type Concert struct {
	ID            int64
	Name          string
	Description   string
	TotalSeats    int
	ReservedSeats int // ConcertService の増減操作でのみ変更される
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Reservations は取得時に付与される予約一覧（読み取り専用）
	Reservations []*reservation.Reservation
}

// NewConcert は新しいコンサートを作成する
func NewConcert(name, description string, totalSeats int) *Concert {
	now := time.Now()
	return &Concert{
		Name:          name,
		Description:   description,
		TotalSeats:    totalSeats,
		ReservedSeats: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AvailableSeats は空席数を返す
func (c *Concert) AvailableSeats() int {
	return c.TotalSeats - c.ReservedSeats
}

// IsFullyBooked は満席かを返す
func (c *Concert) IsFullyBooked() bool {
	return c.ReservedSeats >= c.TotalSeats
}

// HasActiveReservations は付与された予約に有効なものがあるかを返す
func (c *Concert) HasActiveReservations() bool {
	return reservation.CountActive(c.Reservations) > 0
}

// Validate はコンサートの検証を行う
func (c *Concert) Validate() error {
	return ValidateInput(c.Name, c.Description, c.TotalSeats)
}

// ValidateInput は作成入力をフィールド単位で検証する
func ValidateInput(name, description string, totalSeats int) error {
	var errs validation.Errors
	if strings.TrimSpace(name) == "" {
		errs.Add("name", "Concert name is required")
	} else if utf8.RuneCountInString(name) > MaxNameLength {
		errs.Add("name", "Concert name must not exceed 200 characters")
	}
	if strings.TrimSpace(description) == "" {
		errs.Add("description", "Description is required")
	} else if utf8.RuneCountInString(description) > MaxDescriptionLength {
		errs.Add("description", "Description must not exceed 1000 characters")
	}
	if totalSeats < 1 {
		errs.Add("totalSeats", "Total seats must be at least 1")
	}
	return errs.Err()
}

// Availability はコンサートの座席状況のスナップショット
type Availability struct {
	ConcertID      int64 `json:"concertId"`
	TotalSeats     int   `json:"totalSeats"`
	ReservedSeats  int   `json:"reservedSeats"`
	AvailableSeats int   `json:"availableSeats"`
	IsFullyBooked  bool  `json:"isFullyBooked"`
}

// Availability は現在の座席状況を返す
func (c *Concert) Availability() Availability {
	return Availability{
		ConcertID:      c.ID,
		TotalSeats:     c.TotalSeats,
		ReservedSeats:  c.ReservedSeats,
		AvailableSeats: c.AvailableSeats(),
		IsFullyBooked:  c.IsFullyBooked(),
	}
}
