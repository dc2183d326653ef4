package project

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/billbatista/acasinha-finance/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 200

type Project struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Name      string          `json:"name"`
	Budget    decimal.Decimal `json:"budget"`
	Spent     decimal.Decimal `json:"spent"` // sum of entries in Currency
	Currency  currency.Code   `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
}

type Entry struct {
	ID          uuid.UUID       `json:"id"`
	ProjectID   uuid.UUID       `json:"project_id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    currency.Code   `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
}

var (
	ErrEmptyName          = errors.New("project name can't be empty")
	ErrNonPositiveBudget  = errors.New("budget must be greater than zero")
	ErrMissingDate        = errors.New("date is required")
	ErrInvalidDate        = errors.New("date must be formatted as YYYY-MM-DD")
	ErrEmptyDescription   = errors.New("description is required")
	ErrDescriptionTooLong = errors.New("description is too long")
	ErrNonPositiveAmount  = currency.ErrNonPositiveAmount
	ErrNotFound           = errors.New("project not found")
	ErrEntryNotFound      = errors.New("project entry not found")
)

type Input struct {
	Name     string          `json:"name"`
	Budget   decimal.Decimal `json:"budget"`
	Currency string          `json:"currency"`
}

func (in Input) Project(userID uuid.UUID) (Project, error) {
	p := Project{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Budget:    in.Budget,
		Spent:     decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}
	if p.Name == "" {
		return Project{}, ErrEmptyName
	}
	if !p.Budget.IsPositive() {
		return Project{}, ErrNonPositiveBudget
	}
	code, err := parseCurrency(in.Currency)
	if err != nil {
		return Project{}, err
	}
	p.Currency = code
	return p, nil
}

type EntryInput struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

func (in EntryInput) Entry(projectID uuid.UUID) (Entry, error) {
	in.Date = strings.TrimSpace(in.Date)
	if in.Date == "" {
		return Entry{}, ErrMissingDate
	}
	date, err := time.Parse(time.DateOnly, in.Date)
	if err != nil {
		return Entry{}, ErrInvalidDate
	}
	code, err := parseCurrency(in.Currency)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Date:        date,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Currency:    code,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (e *Entry) Validate() error {
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(e.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !e.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return e.Currency.Validate()
}

func parseCurrency(s string) (currency.Code, error) {
	if strings.TrimSpace(s) == "" {
		return currency.USD, nil
	}
	return currency.Parse(s)
}

// Spent sums entries in code, rounded to the currency's display digits.
func Spent(entries []Entry, code currency.Code) (decimal.Decimal, error) {
	items := make([]currency.Money, 0, len(entries))
	for _, e := range entries {
		items = append(items, currency.NewMoney(e.Amount, e.Currency))
	}
	total, err := currency.AggregateTotal(items, code)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Round(code.Digits()), nil
}
