// Package dateutils provides the date operations used throughout the
// application. DKB delivers dates in German day-first notation while
// QIF expects month-first, so most of this package deals with that
// rewrite.
package dateutils

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayoutGerman is the DD.MM.YYYY layout used by the banking site
// for both display and form input.
const DateLayoutGerman = "02.01.2006"

// dayMonthYear matches a German-style date with 1-2 digit day and
// month and a 2-4 digit year anywhere inside a field.
var dayMonthYear = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{2,4})`)

// strictDayMonthYear matches a field that consists of such a date only.
var strictDayMonthYear = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{2,4}$`)

// IsDayMonthYear reports whether the given field contains a
// German-style D.M.Y date.
func IsDayMonthYear(s string) bool {
	return dayMonthYear.MatchString(s)
}

// IsStrictDayMonthYear reports whether the given field is exactly a
// German-style D.M.Y date, as required for form input values.
func IsStrictDayMonthYear(s string) bool {
	return strictDayMonthYear.MatchString(s)
}

// ToMonthDayYear rewrites a German D.M.Y date to the M/D/Y form used
// by QIF. The year is carried over verbatim, so two-digit years stay
// two-digit.
//
//	"15.03.2021" -> "03/15/2021"
func ToMonthDayYear(s string) string {
	return dayMonthYear.ReplaceAllString(s, "$2/$1/$3")
}

// ParseGermanDate parses a DD.MM.YYYY form value into a time.Time.
func ParseGermanDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayoutGerman, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
	}
	return t, nil
}

// FormatGermanDate formats a time.Time as DD.MM.YYYY for form input.
func FormatGermanDate(t time.Time) string {
	return t.Format(DateLayoutGerman)
}

// Today returns the current date in DD.MM.YYYY form. It is the
// default upper bound of an export range.
func Today() string {
	return FormatGermanDate(time.Now())
}
