package rate

import "errors"

// ErrRateLimited is returned when an identifier or IP has exhausted its
// attempt budget for the current cooldown window.
var ErrRateLimited = errors.New("rate limited")

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")
