package util

import (
	"fmt"
	"regexp"
	"time"
)

var circularDateRegex *regexp.Regexp

func init() {
	// Publication dates on the listing pages use "dd.mm.yyyy".
	circularDateRegex = regexp.MustCompile(`\b\d{2}\.\d{2}\.\d{4}\b`)
}

// FindCircularDate returns the first dd.mm.yyyy date token in s, or "" when
// none is present.
func FindCircularDate(s string) string {
	return circularDateRegex.FindString(s)
}

// ParseCircularDate converts a "dd.mm.yyyy" string to a UTC calendar date.
func ParseCircularDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("02.01.2006", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse circular date from '%s': %w", s, err)
	}
	return t, nil
}

// YearSuffix returns the two trailing digits of a year, zero padded, as used
// in the listing page URL template.
func YearSuffix(year int) string {
	return fmt.Sprintf("%02d", year%100)
}
