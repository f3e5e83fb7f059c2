package timeseries

import "errors"

// errKeyNotFound is returned by Remove (TSS, TSD) when the key is absent.
// RemoveIfExists exists precisely to let callers avoid this error.
var errKeyNotFound = errors.New("timeseries: key not found")

// errKeyReaddedSameCycle is returned when a key removed earlier in the
// current cycle is added again before the cycle ends (spec.md §3: "a key
// cannot be re-added in the same cycle in which it was removed").
var errKeyReaddedSameCycle = errors.New("timeseries: key removed and re-added in the same cycle")

// errKeyRemovedThisCycle is returned by lookups that try to access a key
// within the same cycle it was removed (spec.md §8 boundary behavior).
var errKeyRemovedThisCycle = errors.New("timeseries: key removed earlier this cycle")
