package subtitles

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTimestamp renders seconds as HH:MM:SS,mmm. Every unit is truncated,
// never rounded. Negative input is clamped to zero.
func FormatTimestamp(sec float64) string {
	ms := totalMillis(sec)
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (float64, error) {
	s = strings.TrimSpace(s)
	hms, msPart, ok := strings.Cut(s, ",")
	if !ok {
		return 0, fmt.Errorf("timestamp %q: missing millisecond separator", s)
	}
	parts := strings.Split(hms, ":")
	if len(parts) != 3 || len(msPart) != 3 {
		return 0, fmt.Errorf("timestamp %q: want HH:MM:SS,mmm", s)
	}
	var fields [4]int64
	for i, p := range append(parts, msPart) {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("timestamp %q: bad field %q", s, p)
		}
		fields[i] = v
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("timestamp %q: minutes and seconds must be < 60", s)
	}
	ms := fields[0]*3_600_000 + fields[1]*60_000 + fields[2]*1000 + fields[3]
	return float64(ms) / 1000, nil
}

// totalMillis truncates to whole milliseconds. The epsilon absorbs binary
// representation error (1.001*1000 == 1000.9999...).
func totalMillis(sec float64) int64 {
	if sec <= 0 {
		return 0
	}
	return int64(sec*1000 + 1e-6)
}
