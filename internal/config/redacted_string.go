package config

import (
	"encoding/json"
	"fmt"
)

// RedactedString is a string that never reveals its value when printed or serialized.
type RedactedString string

func (r RedactedString) String() string {
	return fmt.Sprintf("<redacted-%d-chars>", len(r))
}

func (r RedactedString) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r RedactedString) MarshalBinary() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r RedactedString) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// Value returns the actual secret.
func (r RedactedString) Value() string {
	return string(r)
}
