package goals

import (
	"strconv"
	"time"
)

// DateLayout is the format of daily progress keys.
const DateLayout = "2006-01-02"

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey validates a YYYY-MM-DD key.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ParseYear accepts a four digit year.
func ParseYear(s string) (int, error) {
	if len(s) != 4 {
		return 0, ErrInvalidYear
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1970 {
		return 0, ErrInvalidYear
	}
	return y, nil
}

// DateLabel formats a key for chart axes, e.g. "Jan 2".
func DateLabel(key string) string {
	t, err := ParseDateKey(key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2")
}
