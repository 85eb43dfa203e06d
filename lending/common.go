package lending

import (
	"strings"
	"time"
)

// ISBNString represents an ISBN identifier
type ISBNString = string

// MemberIDString represents a member identifier
type MemberIDString = string

// DateLayout is the layout used when dates are rendered to or parsed from storage.
const DateLayout = "2006-01-02"

const hoursPerDay = 24

// ToCivilDate truncates t to its calendar date at midnight UTC.
// All dates handled by this package are civil dates, so that day arithmetic is exact.
func ToCivilDate(t time.Time) time.Time {
	year, month, day := t.Date()

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from "from" to "to".
// The result is negative if "to" is before "from".
func DaysBetween(from time.Time, to time.Time) int {
	return int(ToCivilDate(to).Sub(ToCivilDate(from)).Hours() / hoursPerDay)
}

// AddDays returns the civil date that lies the given number of days after t.
func AddDays(t time.Time, days int) time.Time {
	return ToCivilDate(t).AddDate(0, 0, days)
}

// FormatDate renders a civil date with DateLayout.
func FormatDate(t time.Time) string {
	return ToCivilDate(t).Format(DateLayout)
}

// ParseDate parses a date rendered with DateLayout.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, err
	}

	return t, nil
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}
