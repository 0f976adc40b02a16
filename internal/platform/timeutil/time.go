package timeutil

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
)

// RFC3339Millis is RFC 3339 UTC with fixed millisecond precision, used in API payloads.
const RFC3339Millis = "2006-01-02T15:04:05.000Z"

// RFC3339Micros is RFC 3339 UTC with fixed microsecond precision, used in log timestamps.
const RFC3339Micros = "2006-01-02T15:04:05.000000Z"

// Time marshals to JSON as "2024-01-15T10:30:00.000Z".
type Time struct {
	time.Time
}

// MarshalJSON implements json.Marshaler with fixed millisecond precision.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(RFC3339Millis) + `"`), nil
}

// MarshalCBOR encodes Time as the same text string MarshalJSON produces.
func (t Time) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(t.UTC().Format(RFC3339Millis))
}

// Schema documents Time as an RFC 3339 string in the OpenAPI document.
func (Time) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:     huma.TypeString,
		Format:   "date-time",
		Examples: []any{"2024-01-15T10:30:00.000Z"},
	}
}

// Now returns the current time.
func Now() Time {
	return Time{Time: time.Now()}
}
