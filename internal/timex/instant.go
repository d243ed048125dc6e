package timex

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout    = "2006-01-02"
	TimeLayout    = "15:04:05"
	instantLayout = "2006-01-02T15:04:05.000Z"
)

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseInstant parses the timestamp formats seen in updatedAt fields.
func ParseInstant(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InstantMillis is the Unix time in milliseconds of s. Missing or
// unparseable values are the epoch.
func InstantMillis(s string) int64 {
	t, ok := ParseInstant(s)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

func FormatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ErrRangeTooLong is returned by DateRange when the range exceeds its limit.
var ErrRangeTooLong = errors.New("date range too long")

// DateRange lists every date from start to end inclusive. A positive limit
// caps the number of days; the check happens before anything is built.
func DateRange(start, end string, limit int) ([]string, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, err
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return []string{}, nil
	}
	// Sub saturates, so a range of millennia still compares as too long.
	n := int64(to.Sub(from)/(24*time.Hour)) + 1
	if limit > 0 && n > int64(limit) {
		return nil, fmt.Errorf("%w: %d days, limit is %d", ErrRangeTooLong, n, limit)
	}

	out := make([]string, 0, n)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out, nil
}
