// Package codec converts registry records to and from the flat string field
// maps stored as hashes. Structured values exist only on the model side.
package codec

import (
	"encoding/json"
	"strconv"
	"time"
)

// TimeLayout is the ISO-8601 UTC form with millisecond precision
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in UTC with TimeLayout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads any RFC 3339 timestamp; unparsable input yields the zero time
func ParseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// EncodeTags stores tags as a JSON array string
func EncodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeTags reads a JSON array string; empty or malformed input yields no tags
func DecodeTags(s string) []string {
	tags := []string{}
	if s == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return []string{}
	}
	return tags
}

// EncodeBool stores booleans as "true"/"false"
func EncodeBool(b bool) string {
	return strconv.FormatBool(b)
}

func DecodeBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

// EncodeDecimal stores a number in its shortest exact decimal form
func EncodeDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DecodeDecimal reads a decimal; unparsable input yields 0
func DecodeDecimal(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
