package models

import "github.com/google/uuid"

// NewJobID generates an opaque crawl job identifier.
func NewJobID() string {
	return "job_" + uuid.NewString()
}

// NewRequestID generates an opaque identifier for correlating a single
// tool invocation across logs and monitoring counters.
func NewRequestID() string {
	return uuid.NewString()
}
