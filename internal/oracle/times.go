package oracle

import (
	"strconv"
	"strings"
	"time"
)

// InitialSeconds decodes the optional absolute start time of a turn-zero
// result. The engine is loose about the format, so plain seconds, an RFC3339
// timestamp, and a clock reading are all accepted.
func (r TurnResult) InitialSeconds() (int64, bool) {
	s := strings.TrimSpace(r.InitialTime)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n >= 0 {
		return n, true
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.Unix(), true
	}
	if clock, err := time.Parse("15:04:05", s); err == nil {
		return int64(clock.Hour()*3600 + clock.Minute()*60 + clock.Second()), true
	}
	return 0, false
}
