// Package store defines the persistence interfaces used by the service
// layer, together with the transaction helper and the error values store
// implementations translate driver errors into. Implementations live in
// internal/platform/postgres.
package store
