package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is fixed-width UTC with millisecond precision. The store's
// pop script compares created_at values byte-wise, which only orders
// chronologically while every stored value uses this exact layout, so it is
// also the only layout accepted on decode.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type Timestamp struct {
	time.Time
}

// NewTimestamp converts t to UTC and drops precision below a millisecond so
// that a value survives a JSON round trip unchanged.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func ParseTimestamp(raw string) (Timestamp, error) {
	t, err := time.Parse(TimestampLayout, raw)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: timestamp %q is not in %s layout", ErrInvalidInput, raw, TimestampLayout)
	}
	return NewTimestamp(t), nil
}

func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("%w: timestamp must be a string", ErrInvalidInput)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
