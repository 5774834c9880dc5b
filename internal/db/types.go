package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	timestampLayout = "2006-01-02 15:04:05Z07:00"
	dateLayout      = "2006-01-02"
)

// Timestamp converts t to the storage form shared by both drivers: UTC,
// whole seconds, fixed-width text.
func Timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timestampLayout)
}

// DateValue stores the calendar day of t.
func DateValue(t time.Time) string {
	return t.Format(dateLayout)
}

// ScanTime reads a timestamp column into a local time.Time regardless of
// whether the driver returns time.Time or text.
type ScanTime struct {
	Time  time.Time
	Valid bool
}

func (s *ScanTime) Scan(src any) error {
	s.Valid = false
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		s.Time = v.In(time.Local)
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	default:
		return fmt.Errorf("unsupported time source %T", src)
	}
	s.Valid = true
	return nil
}

func (s *ScanTime) parse(v string) error {
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", dateLayout} {
		if t, err := time.Parse(layout, v); err == nil {
			s.Time = t.In(time.Local)
			s.Valid = true
			return nil
		}
	}
	return fmt.Errorf("cannot parse time %q", v)
}

// ScanDate reads a DATE column as midnight UTC of that day.
type ScanDate struct {
	Time time.Time
}

func (s *ScanDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		s.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	}
	return fmt.Errorf("unsupported date source %T", src)
}

func (s *ScanDate) parse(v string) error {
	if len(v) > len(dateLayout) {
		v = v[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return fmt.Errorf("cannot parse date %q: %w", v, err)
	}
	s.Time = t
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err is a foreign key failure.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
