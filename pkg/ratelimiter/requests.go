package ratelimiter

// ReserveRequest asks to reserve capacity for a lease.
type ReserveRequest struct {
	LeaseID      string        `json:"lease_id"`
	JobID        string        `json:"job_id"`
	Requirements []Requirement `json:"requirements"`
}

// ReserveResponse reports whether a reservation was allowed.
type ReserveResponse struct {
	Allowed          bool   `json:"allowed"`
	RetryAfterMs     int    `json:"retry_after_ms"`
	ReservedAtUnixMs int64  `json:"reserved_at_unix_ms"`
	Error            string `json:"error"`
}

// CompleteRequest reports actual usage for a lease.
type CompleteRequest struct {
	LeaseID string   `json:"lease_id"`
	JobID   string   `json:"job_id"`
	Actuals []Actual `json:"actuals"`
}

// CompleteResponse reports whether completion succeeded.
type CompleteResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}
