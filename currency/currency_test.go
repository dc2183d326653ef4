package currency

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

var tolerance = decimal.RequireFromString("0.000000001")

func near(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

func TestParse(t *testing.T) {
	code, err := Parse(" pkr ")
	assert.NoError(t, err)
	assert.Equal(t, PKR, code)

	_, err = Parse("GBP")
	assert.IsError(t, err, ErrUnknownCurrency)
}

func TestConvertIdentityIsExact(t *testing.T) {
	x := decimal.RequireFromString("1234.5678912345")
	for _, c := range Codes() {
		got, err := Convert(x, c, c)
		assert.NoError(t, err)
		assert.True(t, got.Equal(x), "%s: got %s", c, got)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	values := []string{"0.01", "1", "25.50", "1200", "98765.43"}
	for _, v := range values {
		x := decimal.RequireFromString(v)
		for _, a := range Codes() {
			for _, b := range Codes() {
				there, err := Convert(x, a, b)
				assert.NoError(t, err)
				back, err := Convert(there, b, a)
				assert.NoError(t, err)
				assert.True(t, near(back, x), "%s %s->%s->%s gave %s", v, a, b, a, back)
			}
		}
	}
}

func TestConvertPKRToUSD(t *testing.T) {
	got, err := Convert(decimal.NewFromInt(1200), PKR, USD)
	assert.NoError(t, err)
	assert.Equal(t, "4.2857", got.Round(4).String())

	back, err := Convert(decimal.RequireFromString("4.2857"), USD, PKR)
	assert.NoError(t, err)
	assert.True(t, back.Sub(decimal.NewFromInt(1200)).Abs().LessThan(decimal.RequireFromString("0.01")), "got %s", back)
}

func TestConvertErrors(t *testing.T) {
	_, err := Convert(decimal.NewFromInt(10), "GBP", USD)
	assert.IsError(t, err, ErrUnknownCurrency)

	_, err = Convert(decimal.NewFromInt(10), USD, "XXX")
	assert.IsError(t, err, ErrUnknownCurrency)

	_, err = Convert(decimal.Zero, USD, EUR)
	assert.IsError(t, err, ErrNonPositiveAmount)

	_, err = Convert(decimal.NewFromInt(-5), USD, EUR)
	assert.IsError(t, err, ErrNonPositiveAmount)
}

func TestConvertSignedKeepsSign(t *testing.T) {
	got, err := ConvertSigned(decimal.RequireFromString("-25.50"), USD, EUR)
	assert.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("-21.675")), "got %s", got)

	zero, err := ConvertSigned(decimal.Zero, CAD, PKR)
	assert.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestAggregateTotal(t *testing.T) {
	items := []Money{
		NewMoney(decimal.RequireFromString("25.50"), USD),
		NewMoney(decimal.NewFromInt(1200), PKR),
	}
	got, err := AggregateTotal(items, USD)
	assert.NoError(t, err)
	assert.Equal(t, "29.79", got.Round(2).String())
}

func TestAggregateTotalEmpty(t *testing.T) {
	got, err := AggregateTotal(nil, EUR)
	assert.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestAggregateTotalIsOrderIndependent(t *testing.T) {
	items := []Money{
		NewMoney(decimal.RequireFromString("10.10"), USD),
		NewMoney(decimal.RequireFromString("99.99"), EUR),
		NewMoney(decimal.RequireFromString("12.34"), CAD),
		NewMoney(decimal.NewFromInt(4321), PKR),
	}
	want, err := AggregateTotal(items, CAD)
	assert.NoError(t, err)

	permutations := [][]int{{3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}
	for _, p := range permutations {
		shuffled := make([]Money, 0, len(items))
		for _, i := range p {
			shuffled = append(shuffled, items[i])
		}
		got, err := AggregateTotal(shuffled, CAD)
		assert.NoError(t, err)
		assert.True(t, near(got, want), "permutation %v gave %s, want %s", p, got, want)
	}
}

func TestAggregateTotalUnknownTarget(t *testing.T) {
	_, err := AggregateTotal(nil, "JPY")
	assert.IsError(t, err, ErrUnknownCurrency)
}

func TestCustomRates(t *testing.T) {
	c := NewConverter(Rates{USD: decimal.NewFromInt(1), EUR: decimal.NewFromInt(2)})
	got, err := c.Convert(decimal.NewFromInt(3), USD, EUR)
	assert.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(6)))

	_, err = c.Convert(decimal.NewFromInt(3), USD, PKR)
	assert.IsError(t, err, ErrUnknownCurrency)
}

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount string
		code   Code
		want   string
	}{
		{"1234.5", USD, "$1,234.50"},
		{"25.5", EUR, "€25.50"},
		{"0", CAD, "C$0.00"},
		{"1200.4", PKR, "₨1,200"},
		{"-25.50", USD, "-$25.50"},
		{"1234567.891", USD, "$1,234,567.89"},
		{"90071992547409.93", USD, "$90,071,992,547,409.93"},
		{"-0.004", USD, "$0.00"},
	}
	for _, tc := range cases {
		got := FormatMoney(decimal.RequireFromString(tc.amount), tc.code)
		assert.Equal(t, tc.want, got, "%s %s", tc.amount, tc.code)
	}
}
