package notification

import "errors"

// Common errors returned by the notification package
var (
	// ErrEntityMissing is returned when an entity referenced by a queued
	// email job no longer exists. The job is abandoned without retrying;
	// the email would describe something that is gone.
	ErrEntityMissing = errors.New("referenced entity not found")

	// ErrDeliveryFailed is returned when the mail transport keeps failing
	// after the retry budget is spent.
	ErrDeliveryFailed = errors.New("email delivery failed")

	// Constructor dependency errors
	ErrNilTaskReader    = errors.New("task reader cannot be nil")
	ErrNilUserReader    = errors.New("user reader cannot be nil")
	ErrNilProjectReader = errors.New("project reader cannot be nil")
	ErrNilMailer        = errors.New("mailer cannot be nil")
	ErrNilLogger        = errors.New("logger cannot be nil")
	ErrNilJobFactory    = errors.New("job factory cannot be nil")
	ErrNilSubmitter     = errors.New("job submitter cannot be nil")
	ErrNilSummarizer    = errors.New("summarizer cannot be nil")

	// ErrInvalidReference is returned by job constructors when a payload
	// carries a non-positive entity ID.
	ErrInvalidReference = errors.New("entity reference must be a positive ID")
)
