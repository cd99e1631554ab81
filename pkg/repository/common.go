package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// sqlTimeLayout matches sqlite CURRENT_TIMESTAMP, so stored times compare as strings
const sqlTimeLayout = "2006-01-02 15:04:05"

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string {
	return e.err.Error()
}

func (e *criticalError) Unwrap() error {
	return e.err
}

// Is matches any criticalError, used as repeater termination error
func (e *criticalError) Is(target error) bool {
	_, ok := target.(*criticalError)
	return ok
}

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}

// isUniqueError checks if an error is a SQLite uniqueness violation
func isUniqueError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// withLockRetry runs a write operation, retrying only on lock errors
func withLockRetry(ctx context.Context, op func() error) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		if err := op(); err != nil {
			if isLockError(err) {
				return err // retry
			}
			return &criticalError{err: err}
		}
		return nil
	}, &criticalError{})

	var ce *criticalError
	if errors.As(err, &ce) {
		return ce.err
	}
	return err
}

// sqlTime formats optional time for storage, nil stays NULL
func sqlTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(sqlTimeLayout)
}

// parseSQLTime parses time values returned by aggregates, which lose column type
func parseSQLTime(s string) (time.Time, bool) {
	for _, layout := range []string{sqlTimeLayout, "2006-01-02 15:04:05.999999999-07:00", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// stringsSQL is a JSON array of strings for SQL operations
type stringsSQL []string

// Value implements driver.Valuer for database storage
func (s stringsSQL) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval
func (s *stringsSQL) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		*s = stringsSQL{}
		return nil
	}
	if len(data) == 0 {
		*s = stringsSQL{}
		return nil
	}
	return json.Unmarshal(data, (*[]string)(s))
}
