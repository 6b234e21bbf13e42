// Package money handles monetary amounts as int64 centavos and renders
// them with Brazilian Portuguese conventions.
package money

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ErrInvalidAmount indicates a string that cannot be parsed as a
// decimal amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseDecimal converts a decimal string to centavos. It accepts both
// dot (12.34) and comma (12,34) decimal separators, an optional leading
// sign, and rounds half-up on the third decimal place.
func ParseDecimal(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	// "1.234,56" carries a thousands dot; drop it before normalising
	// the decimal comma.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && len(parts) == 2 {
		return 0, ErrInvalidAmount
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}

	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if negative {
		cents = -cents
	}
	return cents, nil
}

// FormatBRL renders centavos as "R$ 1.234,56". Negative amounts keep
// the sign between the currency symbol and the digits.
func FormatBRL(cents int64) string {
	return "R$ " + FormatDecimal(cents)
}

// FormatDecimal renders centavos with two decimals, "," as the decimal
// separator and "." grouping thousands.
func FormatDecimal(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	b.WriteString(sign)
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteString(".")
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteString(".")
		}
	}
	b.WriteString(",")
	if frac < 10 {
		b.WriteString("0")
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	return b.String()
}

// Abs returns the absolute value in centavos.
func Abs(cents int64) int64 {
	if cents < 0 {
		return -cents
	}
	return cents
}

// FormatDate renders "DD/MM/YYYY".
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatDateTime renders "DD/MM/YYYY HH:MM".
func FormatDateTime(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

// monthNamesPT maps English month names to their Portuguese
// translation. The table is fixed so rendering never depends on the
// process locale.
var monthNamesPT = map[string]string{
	"January":   "Janeiro",
	"February":  "Fevereiro",
	"March":     "Março",
	"April":     "Abril",
	"May":       "Maio",
	"June":      "Junho",
	"July":      "Julho",
	"August":    "Agosto",
	"September": "Setembro",
	"October":   "Outubro",
	"November":  "Novembro",
	"December":  "Dezembro",
}

// MonthNamePT returns the Portuguese name for the month of t.
func MonthNamePT(t time.Time) string {
	return monthNamesPT[t.Month().String()]
}
