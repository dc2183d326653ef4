package currency

import (
	"errors"
	"fmt"
	"strings"
)

type Code string

const (
	USD Code = "USD"
	EUR Code = "EUR"
	CAD Code = "CAD"
	PKR Code = "PKR"
)

// Info describes how a currency is displayed.
type Info struct {
	Code   Code   `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Digits int32  `json:"digits"`
}

var (
	ErrUnknownCurrency   = errors.New("unknown currency")
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

var infos = map[Code]Info{
	USD: {Code: USD, Symbol: "$", Name: "US Dollar", Digits: 2},
	EUR: {Code: EUR, Symbol: "€", Name: "Euro", Digits: 2},
	CAD: {Code: CAD, Symbol: "C$", Name: "Canadian Dollar", Digits: 2},
	PKR: {Code: PKR, Symbol: "₨", Name: "Pakistani Rupee", Digits: 0},
}

// Codes returns the supported codes in a stable order.
func Codes() []Code {
	return []Code{USD, EUR, CAD, PKR}
}

// Parse normalizes s and returns the matching code.
func Parse(s string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c Code) Validate() error {
	if _, ok := infos[c]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCurrency, string(c))
	}
	return nil
}

func (c Code) Info() (Info, error) {
	info, ok := infos[c]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, string(c))
	}
	return info, nil
}

// Digits is the number of fractional digits used for display and splitting.
// Unknown codes fall back to two.
func (c Code) Digits() int32 {
	if info, ok := infos[c]; ok {
		return info.Digits
	}
	return 2
}

func (c Code) String() string {
	return string(c)
}
