package resource

import "errors"

// ErrExceedsLimit is returned when a single reservation is larger than the configured limit.
var ErrExceedsLimit = errors.New("resource: request exceeds configured limit")
