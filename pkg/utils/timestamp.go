package utils

import "time"

// ISO8601 with millisecond precision, always rendered in UTC ("...Z").
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func NowTimestamp() string {
	return FormatTimestamp(time.Now())
}
