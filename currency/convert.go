package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rates maps each code to its value of one US dollar.
type Rates map[Code]decimal.Decimal

// DefaultRates is the static table the app ships with. It is not refreshed.
var DefaultRates = Rates{
	USD: decimal.NewFromInt(1),
	EUR: decimal.RequireFromString("0.85"),
	CAD: decimal.RequireFromString("1.25"),
	PKR: decimal.NewFromInt(280),
}

// Money is an amount in a given currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Code            `json:"currency"`
}

func NewMoney(amount decimal.Decimal, code Code) Money {
	return Money{Amount: amount, Currency: code}
}

type Converter struct {
	rates Rates
}

func NewConverter(rates Rates) *Converter {
	return &Converter{rates: rates}
}

var defaultConverter = NewConverter(DefaultRates)

// Convert converts a positive amount from one currency into another through USD.
func (c *Converter) Convert(amount decimal.Decimal, from, to Code) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	return c.ConvertSigned(amount, from, to)
}

// ConvertSigned is Convert without the sign check, used for ledger balances.
func (c *Converter) ConvertSigned(amount decimal.Decimal, from, to Code) (decimal.Decimal, error) {
	fromRate, err := c.rate(from)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := c.rate(to)
	if err != nil {
		return decimal.Zero, err
	}
	if from == to {
		return amount, nil
	}
	usd := amount.Div(fromRate)
	return usd.Mul(toRate), nil
}

// AggregateTotal sums items after converting each into target.
// Zero amounts contribute nothing; negative amounts are rejected.
func (c *Converter) AggregateTotal(items []Money, target Code) (decimal.Decimal, error) {
	if _, err := c.rate(target); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i, item := range items {
		if item.Amount.IsZero() {
			continue
		}
		v, err := c.Convert(item.Amount, item.Currency, target)
		if err != nil {
			return decimal.Zero, fmt.Errorf("item %d: %w", i, err)
		}
		total = total.Add(v)
	}
	return total, nil
}

func (c *Converter) rate(code Code) (decimal.Decimal, error) {
	r, ok := c.rates[code]
	if !ok || !r.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, string(code))
	}
	return r, nil
}

func Convert(amount decimal.Decimal, from, to Code) (decimal.Decimal, error) {
	return defaultConverter.Convert(amount, from, to)
}

func ConvertSigned(amount decimal.Decimal, from, to Code) (decimal.Decimal, error) {
	return defaultConverter.ConvertSigned(amount, from, to)
}

func AggregateTotal(items []Money, target Code) (decimal.Decimal, error) {
	return defaultConverter.AggregateTotal(items, target)
}
