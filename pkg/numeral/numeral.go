// Package numeral parses locale-ambiguous numeric cell text into decimals.
// It tolerates currency symbols, thousands separators, and both comma- and
// dot-decimal conventions, and refuses to guess when separators are ambiguous.
package numeral

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency markers stripped before numeric analysis. Percent signs are
// deliberately not in this list: a percent token is a rate, not an amount.
var currencyMarkers = []string{"R$", "US$", "EUR", "USD", "GBP", "BRL", "€", "$", "£"}

// Parse converts raw cell text into a decimal amount.
// The second return value reports whether the text was a recognizable number;
// callers must treat false as "absent", never as zero.
func Parse(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}

	// Rates like "20,00%" must not read as amounts.
	if strings.ContainsRune(s, '%') {
		return decimal.Decimal{}, false
	}

	for _, sym := range currencyMarkers {
		s = strings.ReplaceAll(s, sym, "")
	}

	// Accounting negatives: (12,50) means -12,50
	negative := false
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}

	// Keep digits and separators only; spaces act as thousands separators in
	// French documents and are dropped here.
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			return r
		case r == ' ', r == ' ', r == ' ':
			return -1
		default:
			return 'x' // Any other rune poisons the token
		}
	}, s)
	if strings.ContainsRune(cleaned, 'x') {
		return decimal.Decimal{}, false
	}

	if strings.HasPrefix(cleaned, "-") {
		negative = !negative
		cleaned = cleaned[1:]
	}
	if cleaned == "" || strings.ContainsRune(cleaned, '-') {
		return decimal.Decimal{}, false
	}

	normalized, ok := normalizeSeparators(cleaned)
	if !ok {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseNull is Parse with a NullDecimal result, convenient for optional fields.
func ParseNull(raw string) decimal.NullDecimal {
	d, ok := Parse(raw)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

// IsNumeric reports whether Parse would accept the text.
func IsNumeric(raw string) bool {
	_, ok := Parse(raw)
	return ok
}

// normalizeSeparators rewrites a digits-and-separators token into canonical
// dot-decimal form. When both separators appear, the one occurring last is
// the decimal separator and must appear exactly once, with the other grouping
// digits in threes; a single separator is always read as the decimal
// separator; repeated single-kind separators must group digits in threes.
// Anything else is ambiguous and rejected.
func normalizeSeparators(s string) (string, bool) {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas == 0 && dots == 0:
		return s, true

	case commas == 1 && dots == 0:
		return strings.Replace(s, ",", ".", 1), true

	case commas == 0 && dots == 1:
		return s, true

	case commas >= 1 && dots >= 1:
		// Both kinds present: last one is the decimal separator.
		var dec, thou string
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			dec, thou = ",", "."
		} else {
			dec, thou = ".", ","
		}
		if strings.Count(s, dec) != 1 {
			return "", false
		}
		intPart, fracPart, _ := strings.Cut(s, dec)
		if strings.Contains(fracPart, thou) {
			return "", false
		}
		if !groupedInThrees(intPart, thou) {
			return "", false
		}
		return strings.ReplaceAll(intPart, thou, "") + "." + fracPart, true

	default:
		// A single repeated separator must be a thousands grouping.
		thou := ","
		if dots > 0 {
			thou = "."
		}
		if !groupedInThrees(s, thou) {
			return "", false
		}
		return strings.ReplaceAll(s, thou, ""), true
	}
}

// groupedInThrees checks that sep splits s into a leading group of 1-3 digits
// followed by groups of exactly 3.
func groupedInThrees(s, sep string) bool {
	groups := strings.Split(s, sep)
	for i, g := range groups {
		if i == 0 {
			if len(g) < 1 || len(g) > 3 {
				return false
			}
			continue
		}
		if len(g) != 3 {
			return false
		}
	}
	return true
}
