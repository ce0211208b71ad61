package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// EpochMillis is a wire timestamp in milliseconds since the Unix epoch.
// Convex emits fractional values for system fields, so decoding truncates.
type EpochMillis int64

func (m EpochMillis) Time() time.Time {
	if m == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(m))
}

func (m EpochMillis) IsZero() bool {
	return m == 0
}

func MillisFrom(t time.Time) EpochMillis {
	if t.IsZero() {
		return 0
	}
	return EpochMillis(t.UnixMilli())
}

func (m *EpochMillis) UnmarshalJSON(data []byte) error {
	f, isNull, err := decodeNumber(data)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", string(data), err)
	}
	if isNull {
		*m = 0
		return nil
	}
	*m = EpochMillis(int64(f))
	return nil
}

// Cents is a monetary amount in integer cents.
type Cents int64

func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

// String renders "$1,234.56" (negative as "-$12.00").
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := strconv.FormatInt(v/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), v%100)
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	f, isNull, err := decodeNumber(data)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", string(data), err)
	}
	if isNull {
		*c = 0
		return nil
	}
	*c = Cents(math.Round(f))
	return nil
}

func decodeNumber(data []byte) (float64, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, true, nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, false, err
	}
	return f, false, nil
}

// DateRange is inclusive on both ends; zero bounds are open.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// MonthStart is the first instant of t's calendar month in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DayStart is local midnight of t's day.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NormalizeEmail is the customer identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
