package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
)

// Event types emitted by the task mutation service.
const (
	// EventTaskAssigned is emitted when a task gains an assignee.
	EventTaskAssigned = "task_assigned"

	// EventTaskStatusChanged is emitted when a task's status changes and
	// a distinct assignee should be told about it.
	EventTaskStatusChanged = "task_status_changed"
)

// TaskAssignedPayload carries the identifiers the notification pipeline
// needs to compose an assignment email. ActorID is the user who made the
// assignment; AssigneeID is the recipient.
type TaskAssignedPayload struct {
	TaskID     int64 `json:"task_id"`
	AssigneeID int64 `json:"assigned_user_id"`
	ActorID    int64 `json:"assigned_by_id"`
}

// TaskStatusChangedPayload describes a status transition on a task.
// TargetUserID is the assignee to notify; ActorID made the change.
type TaskStatusChangedPayload struct {
	TaskID       int64             `json:"task_id"`
	TargetUserID int64             `json:"target_user_id"`
	ActorID      int64             `json:"changed_by_id"`
	OldStatus    domain.TaskStatus `json:"old_status"`
	NewStatus    domain.TaskStatus `json:"new_status"`
}

// Event is a transient notification-triggering record. Events are not
// persisted; they exist only to decouple the mutation service from the
// background job queue. Handlers must tolerate receiving the same event
// more than once.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Event* constants above
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event of the given type, serializing the payload
// to JSON.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
