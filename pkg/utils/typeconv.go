package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dataflowlabs/tap-appmetrica/pkg/models"
)

// Layouts the Logs API uses in CSV exports, plus common ISO variants
// that show up in start_date config and saved state.
var dateTimeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDateTime parses a timestamp in any of the accepted layouts.
func ParseDateTime(val string) (time.Time, error) {
	for _, f := range dateTimeFormats {
		if t, err := time.Parse(f, val); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse datetime: %s", val)
}

// TypeValue converts a raw CSV string according to the schema property.
// Empty strings become nil; values that fail conversion are passed
// through untouched so a single bad cell does not kill a sync.
func TypeValue(val string, prop models.Property) interface{} {
	if val == "" {
		return nil
	}
	switch prop.Format {
	case "date":
		if t, err := ParseDateTime(val); err == nil {
			return t.Format("2006-01-02")
		}
		return val
	case "date-time":
		if t, err := ParseDateTime(val); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
		return val
	}
	for _, typ := range prop.Type {
		if typ == "integer" {
			if n, err := ConvertToInt(val); err == nil {
				return n
			}
			return val
		}
	}
	return val
}

// DateOnly returns the date portion of a timestamp string, used to derive
// synthetic replication key values from receive datetimes.
func DateOnly(val string) string {
	t, err := ParseDateTime(val)
	if err != nil {
		if len(val) >= 10 {
			return val[:10]
		}
		return val
	}
	return t.Format("2006-01-02")
}

func ConvertToInt(val interface{}) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	case []byte:
		return strconv.Atoi(string(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", val)
	}
}
