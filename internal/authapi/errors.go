package authapi

import "errors"

// ErrUnavailable marks transport-level failures (connectivity, timeouts,
// non-2xx status). Callers can treat it as retryable.
var ErrUnavailable = errors.New("license service unavailable")
