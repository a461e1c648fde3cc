// Package events decouples task mutations from notification delivery.
//
// The mutation service emits an Event after a qualifying change commits
// (a task gains an assignee, or its status changes while someone else is
// assigned). Registered handlers, typically the notification package's
// job-enqueuing handler, pick the event up without the service knowing
// about them.
//
// Delivery is at-least-once and in-process only: events are not persisted,
// and a crash between commit and emit drops the notification. Handlers
// must tolerate duplicate events.
package events
