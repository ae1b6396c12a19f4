package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SQLite stores dates and timestamps as ISO-8601 text. These layouts are the
// single source of truth for both directions; lexicographic comparison of the
// stored strings matches chronological order, which the checkin queries rely on.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// Date is a calendar day without a time component.
// It round-trips through SQLite DATE columns as a "YYYY-MM-DD" string.
type Date struct {
	t time.Time
}

// NewDate builds a Date from year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day in local time.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustDate is ParseDate that panics on malformed input. For tests and fixtures.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string { return d.t.Format(dateLayout) }

// Time returns the underlying time at midnight UTC.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Equal reports whether two dates name the same calendar day.
func (d Date) Equal(o Date) bool { return d.String() == o.String() }

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Value implements driver.Valuer, storing the date as ISO text.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner. The sqlite3 driver hands back either the raw
// text or an already-parsed time.Time depending on the declared column type.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if s == "" {
		*d = Date{}
		return nil
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON writes the date as a "YYYY-MM-DD" string, or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a "YYYY-MM-DD" string or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	return d.scanString(*s)
}

// DateTime is a wall-clock timestamp with second precision.
// It round-trips through SQLite DATETIME columns as "YYYY-MM-DDTHH:MM:SS"
// text, so SQLite's date() function can derive the calendar day.
type DateTime struct {
	t time.Time
}

// NewDateTime truncates t to second precision.
func NewDateTime(t time.Time) DateTime {
	return DateTime{t: t.Truncate(time.Second)}
}

// ParseDateTime parses a "YYYY-MM-DDTHH:MM:SS" string.
func ParseDateTime(s string) (DateTime, error) {
	t, err := time.Parse(dateTimeLayout, s)
	if err != nil {
		return DateTime{}, fmt.Errorf("parse datetime %q: %w", s, err)
	}
	return DateTime{t: t}, nil
}

// MustDateTime is ParseDateTime that panics on malformed input.
func MustDateTime(s string) DateTime {
	dt, err := ParseDateTime(s)
	if err != nil {
		panic(err)
	}
	return dt
}

func (dt DateTime) String() string { return dt.t.Format(dateTimeLayout) }

// Time returns the underlying time.
func (dt DateTime) Time() time.Time { return dt.t }

// IsZero reports whether the timestamp is the zero value.
func (dt DateTime) IsZero() bool { return dt.t.IsZero() }

// Date truncates the timestamp to its calendar day.
func (dt DateTime) Date() Date {
	return NewDate(dt.t.Year(), dt.t.Month(), dt.t.Day())
}

// Equal reports whether two timestamps name the same second.
func (dt DateTime) Equal(o DateTime) bool { return dt.String() == o.String() }

// Value implements driver.Valuer, storing the timestamp as ISO text.
func (dt DateTime) Value() (driver.Value, error) {
	if dt.IsZero() {
		return nil, nil
	}
	return dt.String(), nil
}

// Scan implements sql.Scanner.
func (dt *DateTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*dt = DateTime{}
		return nil
	case time.Time:
		*dt = NewDateTime(v)
		return nil
	case string:
		return dt.scanString(v)
	case []byte:
		return dt.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into DateTime", src)
	}
}

func (dt *DateTime) scanString(s string) error {
	if s == "" {
		*dt = DateTime{}
		return nil
	}
	parsed, err := ParseDateTime(s)
	if err != nil {
		// Bare dates appear when a DATETIME column holds a day boundary.
		d, derr := ParseDate(s)
		if derr != nil {
			return err
		}
		*dt = DateTime{t: d.Time()}
		return nil
	}
	*dt = parsed
	return nil
}

// MarshalJSON writes the timestamp as ISO text, or null when zero.
func (dt DateTime) MarshalJSON() ([]byte, error) {
	if dt.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(dt.String())
}

// UnmarshalJSON accepts an ISO timestamp string or null.
func (dt *DateTime) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*dt = DateTime{}
		return nil
	}
	return dt.scanString(*s)
}
