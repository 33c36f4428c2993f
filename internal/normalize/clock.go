package normalize

import "time"

const (
	clockLayout = "3:04 PM"
	hourLayout  = "3 PM"
	dateKey     = "2006-01-02"
)

// EpochToLocalTime renders a unix timestamp as "h:mm AM/PM" in loc (UTC when nil).
func EpochToLocalTime(ts int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return ClockLabel(time.Unix(ts, 0).In(loc))
}

// ClockLabel renders t as "h:mm AM/PM" in its own location.
func ClockLabel(t time.Time) string {
	return t.Format(clockLayout)
}

// HourLabel renders t as "3 PM".
func HourLabel(t time.Time) string {
	return t.Format(hourLayout)
}

// ZoneFromOffset builds a fixed zone for providers that report a UTC offset in seconds.
func ZoneFromOffset(name string, offsetSeconds int) *time.Location {
	if name == "" {
		name = "UTC"
		if offsetSeconds != 0 {
			name = time.Unix(0, 0).In(time.FixedZone("", offsetSeconds)).Format("-07:00")
		}
	}
	return time.FixedZone(name, offsetSeconds)
}
