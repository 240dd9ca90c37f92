package models

import (
	"fmt"
	"time"
)

// naiveLayout is how the backend renders UTC datetimes that carry no offset.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Timestamp is a UTC time that also accepts datetimes without a timezone offset.
type Timestamp struct {
	time.Time
}

func (s Timestamp) MarshalText() (data []byte, err error) {
	return []byte(s.UTC().Format(time.RFC3339Nano)), nil
}

func (s *Timestamp) UnmarshalText(data []byte) error {
	raw := string(data)
	if raw == "" {
		*s = Timestamp{}
		return nil
	}
	val, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		val, err = time.ParseInLocation(naiveLayout, raw, time.UTC)
		if err != nil {
			return fmt.Errorf("cannot parse timestamp %q: %w", raw, err)
		}
	}
	*s = Timestamp{val.UTC()}
	return nil
}
