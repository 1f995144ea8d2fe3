package elasticsearch

import "time"

// ToTimestamp converts t to epoch milliseconds
func ToTimestamp(t time.Time) int64 {
	return t.UnixMilli()
}

// FromTimestamp converts epoch milliseconds to a time in loc, UTC when loc is nil
func FromTimestamp(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc)
}
