package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrInvalidDate is wrapped by ParseDate for input that is not a packed PDF date.
var ErrInvalidDate = errors.New("invalid PDF date")

// ISOLayout is the layout NormalizeDate emits.
const ISOLayout = "2006-01-02T15:04:05.000Z"

const packedLayout = "20060102150405"

// ParseDate reads a PDF date string such as "D:20240315123456-07'00'". The
// fields are taken as-is; any timezone suffix is ignored and the result is
// reported in UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "D:")
	if len(s) < len(packedLayout) {
		return time.Time{}, fmt.Errorf("%w: %q too short", ErrInvalidDate, raw)
	}
	t, err := time.ParseInLocation(packedLayout, s[:len(packedLayout)], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, raw, err)
	}
	return t, nil
}

// NormalizeDate returns the ISO form of a PDF date, or nil when raw is empty
// or cannot be parsed. Parse failures are logged, never returned.
func NormalizeDate(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		slog.Warn("extract: unparseable creation date", "raw", raw, "error", err)
		return nil
	}
	s := t.Format(ISOLayout)
	return &s
}
