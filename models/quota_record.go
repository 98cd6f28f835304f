package models

import "time"

// QuotaRecord tracks a caller's request count within the current quota
// window. One record exists per caller; it is created on the caller's first
// request and mutated on every admission, never deleted.
type QuotaRecord struct {
	CallerID     string
	RequestCount int
	WindowStart  time.Time
}
