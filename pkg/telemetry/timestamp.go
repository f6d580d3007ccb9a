package telemetry

import (
	"time"

	"github.com/pkg/errors"
)

// Layouts accepted for offset-naive ISO-8601 timestamps. Devices in the
// field report without a timezone; those values are interpreted in the
// configured local zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 timestamp and returns it in UTC. Values
// carrying an explicit offset are converted directly; offset-naive values
// are assumed to be in loc before conversion.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}

	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, errors.Errorf("unparseable timestamp %q", value)
}
