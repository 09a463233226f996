// Package week provides ISO-8601 week identifiers and the season
// arithmetic built on top of them. A week is written "YYYY-Www"
// (e.g. "2025-W31") and runs Monday 00:00:00 UTC through the last
// second of the following Sunday. Seasons are fixed 13-week windows
// counted from a configured genesis week.
package week

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// WeeksPerSeason is the fixed season length.
const WeeksPerSeason = 13

// ErrInvalidWeek is returned when a week identifier cannot be parsed.
var ErrInvalidWeek = errors.New("invalid ISO week identifier")

var weekPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// Week is a parsed ISO week.
type Week struct {
	Year int
	Num  int // 1..53
}

// Parse parses an identifier of the form "2025-W31".
func Parse(s string) (Week, error) {
	m := weekPattern.FindStringSubmatch(s)
	if m == nil {
		return Week{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
	}
	year, _ := strconv.Atoi(m[1])
	num, _ := strconv.Atoi(m[2])
	w := Week{Year: year, Num: num}
	if num < 1 || num > isoWeeksInYear(year) {
		return Week{}, fmt.Errorf("%w: %q has no week %d", ErrInvalidWeek, s, num)
	}
	return w, nil
}

// String formats the week as "YYYY-Www".
func (w Week) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Num)
}

// Start returns Monday 00:00:00 UTC of the week.
func (w Week) Start() time.Time {
	// January 4th always falls in ISO week 1.
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	mondayWeek1 := jan4.AddDate(0, 0, -int((jan4.Weekday()+6)%7))
	return mondayWeek1.AddDate(0, 0, (w.Num-1)*7)
}

// End returns the final second of the week in UTC. This is the
// settlement cutoff instant: the last block whose timestamp is <= End
// belongs to the week.
func (w Week) End() time.Time {
	return w.Start().AddDate(0, 0, 7).Add(-time.Second)
}

// Next returns the following ISO week.
func (w Week) Next() Week {
	return FromTime(w.Start().AddDate(0, 0, 7))
}

// FromTime returns the ISO week containing t (interpreted in UTC).
func FromTime(t time.Time) Week {
	year, num := t.UTC().ISOWeek()
	return Week{Year: year, Num: num}
}

// WeeksBetween returns the signed number of whole weeks from a to b.
func WeeksBetween(a, b Week) int {
	return int(b.Start().Sub(a.Start()) / (7 * 24 * time.Hour))
}

// isoWeeksInYear returns 52 or 53 depending on the year.
func isoWeeksInYear(year int) int {
	// December 28th always falls in the last ISO week of its year.
	_, num := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return num
}
