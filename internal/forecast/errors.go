package forecast

import "errors"

// ErrUnavailable is wrapped by cache backends when the datastore cannot be
// reached or read. Callers treat it as a forced miss.
var ErrUnavailable = errors.New("forecast cache unavailable")
