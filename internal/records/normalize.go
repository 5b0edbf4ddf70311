package records

import (
	"github.com/myrjola/lettergen/internal/errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// maxExponent bounds the scientific notation exponents NormalizeIdentifier expands. Real identifiers stay far below.
const maxExponent = 64

// NormalizeIdentifier undoes spreadsheet number formatting on identifiers such as account numbers.
//
// Input made of digits and at most one dot is numeric, optionally followed by an exponent as in
// "1.2345678901234E+13". Whole numbers ("12345.0", "0012345", "1.5E+3") become their integer form without going
// through floating point, so long account numbers stay exact. Other numbers become their shortest decimal form
// ("12.50" is "12.5"). Anything else is returned unchanged.
func NormalizeIdentifier(s string) string {
	mantissa, exponent, ok := splitExponent(s)
	if !ok || !isNumeric(mantissa) || exponent > maxExponent {
		return s
	}
	whole, frac, _ := strings.Cut(mantissa, ".")
	if exponent > 0 {
		shift := min(exponent, len(frac))
		whole, frac = whole+frac[:shift]+strings.Repeat("0", exponent-shift), frac[shift:]
	}
	if exponent >= 0 && strings.Trim(frac, "0") == "" {
		whole = strings.TrimLeft(whole, "0")
		if whole == "" {
			return "0"
		}
		return whole
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// splitExponent cuts an "e" or "E" exponent off s. ok is false when the exponent is not a signed integer.
func splitExponent(s string) (string, int, bool) {
	i := strings.IndexAny(s, "eE")
	if i < 0 {
		return s, 0, true
	}
	exponent, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s, 0, false
	}
	return s[:i], exponent, true
}

func isNumeric(s string) bool {
	digits, dots := 0, 0
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

var ErrAmount = errors.NewSentinel("not an amount")

// ParseAmount reads a currency amount, ignoring everything but digits and dots so that "Rs. 1,000" is 1000.
func ParseAmount(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, errors.Wrap(ErrAmount, "parse amount", slog.String("raw", raw))
	}
	return f, nil
}

// FormatINR renders an amount with Indian digit grouping, for example "₹1,23,456/-". The amount is rounded to
// paise and the paise are dropped. Input that is not an amount is returned as-is.
func FormatINR(raw string) string {
	amount, err := ParseAmount(raw)
	if err != nil {
		return raw
	}
	return FormatRupees(amount)
}

// FormatRupees is [FormatINR] for an amount that is already parsed.
func FormatRupees(amount float64) string {
	whole, _, _ := strings.Cut(strconv.FormatFloat(amount, 'f', 2, 64), ".")
	sign := ""
	if strings.HasPrefix(whole, "-") {
		sign, whole = "-", whole[1:]
	}
	if len(whole) <= 3 {
		return "₹" + sign + whole + "/-"
	}

	// Thousands are three digits wide, lakh and crore groups above them two.
	head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
	groups := []string{tail}
	for len(head) > 2 {
		groups = append(groups, head[len(head)-2:])
		head = head[:len(head)-2]
	}
	groups = append(groups, head)
	slices.Reverse(groups)
	return "₹" + sign + strings.Join(groups, ",") + "/-"
}
