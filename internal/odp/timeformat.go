package odp

import "time"

// TimestampFormat is the wire format the catalog uses for timestamps.
const TimestampFormat = "2006-01-02T15:04:05"

var timestampLayouts = []struct {
	digits int
	layout string
}{
	{14, "20060102150405"},
	{12, "200601021504"},
	{8, "20060102"},
	{6, "200601"},
	{4, "2006"},
}

// FindTimestamp locates the first datetime encoded as a digit run in a
// granule filename. Longer runs are preferred, so "20100401120000" is read as
// a full timestamp and not as a date plus noise.
func FindTimestamp(filename string) (time.Time, bool) {
	for _, cand := range timestampLayouts {
		for i := 0; i+cand.digits <= len(filename); i++ {
			if !allDigits(filename[i : i+cand.digits]) {
				continue
			}
			t, err := time.Parse(cand.layout, filename[i:i+cand.digits])
			if err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
