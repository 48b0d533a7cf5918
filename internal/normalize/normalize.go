// Package normalize provides the canonicalization functions that make
// records from independently produced files joinable: phone numbers, names,
// money strings, and dates.
//
// Every function in this package is total over its input domain. Malformed
// or empty input yields a zero value (empty string, decimal.Zero, "no
// date"), never an error, so one bad cell cannot abort a multi-thousand-row
// batch.
package normalize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCountryCode is the calling code substituted for a local leading
// zero when no other code is configured.
const DefaultCountryCode = "212"

// Phone canonicalizes a raw phone number using the given country calling
// code (without the leading +). Rules, in order:
//
//   - all non-digit characters are stripped
//   - a leading "00" international prefix becomes "+"
//   - a number already starting with the country code is "+"-prefixed
//   - a local leading "0" is replaced with "+" and the country code
//   - anything else is assumed local and gets "+" and the country code
//
// The result is idempotent: Phone(Phone(x)) == Phone(x). Empty input yields
// the empty string.
func Phone(raw, countryCode string) string {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	s := digits.String()
	if s == "" {
		return ""
	}

	// A value that already carries "+" is canonical apart from separators.
	if strings.HasPrefix(strings.TrimSpace(raw), "+") {
		return "+" + s
	}

	switch {
	case strings.HasPrefix(s, "00"):
		return "+" + s[2:]
	case strings.HasPrefix(s, countryCode):
		return "+" + s
	case strings.HasPrefix(s, "0"):
		return "+" + countryCode + s[1:]
	default:
		return "+" + countryCode + s
	}
}

// Name normalizes a display name for equality comparison and fallback
// joining. The result is never used for display.
func Name(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Money parses a raw cell into a decimal amount. It tolerates a comma used
// as decimal separator, spaces as thousands separators, currency symbols,
// and stray quotes. Malformed or empty input yields decimal.Zero.
func Money(raw string) decimal.Decimal {
	var cleaned strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == ',':
			cleaned.WriteRune(r)
		}
	}

	s := cleaned.String()
	if s == "" {
		return decimal.Zero
	}

	// "1,234.56": comma is a thousands separator. "12,34": comma is the
	// decimal separator.
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// dateFormats are tried in order. Day-before-month interpretations come
// first to match the regional exports the engine consumes.
var dateFormats = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006 15:04:05",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Date parses a raw cell with day-before-month interpretation. The second
// return value is false when the input is empty or unparsable; callers
// treat that as "no date" rather than failing the batch.
func Date(raw string) (time.Time, bool) {
	s := strings.Trim(strings.TrimSpace(raw), `"`)
	if s == "" {
		return time.Time{}, false
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// businessDayCutoffHour is the hour before which an order timestamp is
// attributed to the previous calendar day. Orders logged just after
// midnight belong to the previous business day.
const businessDayCutoffHour = 3

// BusinessDay applies the business-day shift to an order timestamp. It
// applies to order timestamps only, never to external ledger dates.
// Exact midnight means the source carried a date without a time component;
// those are left on their calendar day.
func BusinessDay(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t
	}
	if t.Hour() < businessDayCutoffHour {
		return t.AddDate(0, 0, -1)
	}
	return t
}
