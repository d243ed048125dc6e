package timex

import (
	"fmt"
	"strings"
	"time"
)

// Zone names the wall clock used for "today" and for the time-of-day stamp
// on attendance records.
type Zone string

const (
	ZoneLocal Zone = "local"
	ZoneWIB   Zone = "WIB"
	ZoneWITA  Zone = "WITA"
	ZoneWIT   Zone = "WIT"
)

var zoneOffsets = map[Zone]int{
	ZoneWIB:  7,
	ZoneWITA: 8,
	ZoneWIT:  9,
}

// ParseZone accepts the preset names case-insensitively. Empty means local.
func ParseZone(s string) (Zone, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(ZoneLocal)) {
		return ZoneLocal, nil
	}
	for z := range zoneOffsets {
		if strings.EqualFold(s, string(z)) {
			return z, nil
		}
	}
	return "", fmt.Errorf("unknown timezone %q (want local, WIB, WITA or WIT)", s)
}

// Location returns the fixed offset for the Indonesian presets and
// time.Local otherwise.
func (z Zone) Location() *time.Location {
	if h, ok := zoneOffsets[z]; ok {
		return time.FixedZone(string(z), h*3600)
	}
	return time.Local
}

// Clock produces dates and times in a configured zone.
type Clock struct {
	Zone Zone
	Now  func() time.Time
}

func NewClock(z Zone) Clock {
	return Clock{Zone: z, Now: time.Now}
}

func (c Clock) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().In(c.Zone.Location())
}

// Today is the current date as YYYY-MM-DD.
func (c Clock) Today() string {
	return c.now().Format(DateLayout)
}

// TimeOfDay is the current wall clock time as HH:MM:SS.
func (c Clock) TimeOfDay() string {
	return c.now().Format(TimeLayout)
}

// Stamp is the current instant for updatedAt fields, always in UTC with
// millisecond precision.
func (c Clock) Stamp() string {
	return FormatInstant(c.now())
}

// FormatClock renders an HH:MM:SS value for display; "12h" switches to a
// 12 hour clock, anything else leaves the value as is.
func FormatClock(hhmmss, format string) string {
	if format != "12h" {
		return hhmmss
	}
	t, err := time.Parse(TimeLayout, hhmmss)
	if err != nil {
		return hhmmss
	}
	return t.Format("03:04:05 PM")
}
