package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// StorageLayout is the canonical text form of a sample timestamp
const StorageLayout = "2006-01-02 15:04:05"

// Timestamp is a wall-clock sample time. It is stored and serialized as
// StorageLayout without any timezone information. The wall clock is carried
// in UTC so that no zone rules (DST gaps or repeated hours) ever shift it.
type Timestamp struct {
	time.Time
}

// WallClock returns the wall clock of t, in t's own location, rebuilt in UTC
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// NewTimestamp keeps the wall clock of t, truncated to whole seconds
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: WallClock(t).Truncate(time.Second)}
}

// ParseTimestamp parses a StorageLayout string as a wall clock
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.ParseInLocation(StorageLayout, s, time.UTC)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return Timestamp{Time: t}, nil
}

// MustTimestamp is ParseTimestamp for fixtures; it panics on malformed input
func MustTimestamp(s string) Timestamp {
	ts, err := ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return ts
}

// String formats the timestamp in StorageLayout
func (t Timestamp) String() string {
	return t.Format(StorageLayout)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer
func (t Timestamp) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner
func (t *Timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		*t = parsed
	case []byte:
		parsed, err := ParseTimestamp(string(v))
		if err != nil {
			return err
		}
		*t = parsed
	case time.Time:
		*t = NewTimestamp(v)
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
	return nil
}
