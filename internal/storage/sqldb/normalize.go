package sqldb

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Normalize maps a driver value onto the frame cell types: nil, int64,
// float64 or string. Byte slices are decoded using the column's database
// type so text-protocol drivers (mysql) round-trip numbers.
func Normalize(v any, dbType string) any {
	switch x := v.(type) {
	case nil, int64, float64, string:
		return x
	case []byte:
		return fromText(string(x), dbType)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func fromText(s, dbType string) any {
	t := strings.ToUpper(dbType)
	switch {
	case strings.Contains(t, "INT"):
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case strings.Contains(t, "DOUBLE"), strings.Contains(t, "FLOAT"),
		strings.Contains(t, "REAL"), strings.Contains(t, "DECIMAL"),
		strings.Contains(t, "NUMERIC"):
		if x, err := strconv.ParseFloat(s, 64); err == nil {
			return x
		}
	}
	return s
}
