package reactive

import "errors"

// ErrFlushLimit is returned by Queue.Flush when effects keep re-queueing
// each other past the configured number of passes. The remaining effects
// stay queued.
var ErrFlushLimit = errors.New("reactive: queue flush limit exceeded")
