package expense

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/billbatista/acasinha-finance/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const MaxDescriptionLength = 200

type Expense struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    currency.Code   `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
}

var (
	ErrMissingDate        = errors.New("date is required")
	ErrInvalidDate        = errors.New("date must be formatted as YYYY-MM-DD")
	ErrEmptyCategory      = errors.New("category is required")
	ErrEmptyDescription   = errors.New("description is required")
	ErrDescriptionTooLong = errors.New("description is too long")
	ErrNonPositiveAmount  = currency.ErrNonPositiveAmount
	ErrNotFound           = errors.New("expense not found")
)

// Input is an expense as submitted by a client.
type Input struct {
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

// Expense validates in and builds a new expense for userID. An empty
// currency means USD.
func (in Input) Expense(userID uuid.UUID) (Expense, error) {
	in.Date = strings.TrimSpace(in.Date)
	if in.Date == "" {
		return Expense{}, ErrMissingDate
	}
	date, err := time.Parse(time.DateOnly, in.Date)
	if err != nil {
		return Expense{}, ErrInvalidDate
	}

	code := currency.USD
	if strings.TrimSpace(in.Currency) != "" {
		code, err = currency.Parse(in.Currency)
		if err != nil {
			return Expense{}, err
		}
	}

	e := Expense{
		ID:          uuid.New(),
		UserID:      userID,
		Date:        date,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Currency:    code,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (e *Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !e.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return e.Currency.Validate()
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
