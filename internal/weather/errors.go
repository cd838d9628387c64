package weather

import (
	"encoding/json"
	"fmt"
)

// UpstreamError is returned when the provider answered with a non-OK "cod".
// Payload is the provider body, unmodified.
type UpstreamError struct {
	Code    int
	Payload json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("weather provider returned cod %d", e.Code)
}
