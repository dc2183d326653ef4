package currency

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders amount with the currency symbol and en-US grouping.
// PKR is shown without fractional digits, every other code with two.
// Unknown codes are rendered with the code as prefix.
func FormatMoney(amount decimal.Decimal, code Code) string {
	symbol := string(code) + " "
	if info, ok := infos[code]; ok {
		symbol = info.Symbol
	}
	digits := code.Digits()

	rounded := amount.Round(digits)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	// only the integer part is grouped; the fraction never passes through a float
	whole := printer.Sprint(number.Decimal(rounded.IntPart()))
	if _, frac, ok := strings.Cut(rounded.StringFixed(digits), "."); ok {
		whole += "." + frac
	}
	return sign + symbol + whole
}

// Format is FormatMoney for a Money value.
func (m Money) Format() string {
	return FormatMoney(m.Amount, m.Currency)
}
