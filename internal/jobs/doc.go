// Package jobs provides a persistent background job queue with a
// bounded in-memory channel, a fixed worker pool, crash recovery, and a
// stuck-job monitor. Job rows survive restarts; the Registry rebuilds
// executable jobs from their persisted type and payload on recovery.
package jobs
