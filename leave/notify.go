package leave

import "context"

// =============================================================================
// NOTIFICATION SINK - Best-effort outbound events
// =============================================================================

type Event string

const (
	EventNewRequest        Event = "new_request"
	EventApproved          Event = "approved"
	EventRejected          Event = "rejected"
	EventEarlyCheckin      Event = "early_checkin"
	EventExtensionRequest  Event = "extension_request"
	EventExtensionApproved Event = "extension_approved"
	EventExtensionRejected Event = "extension_rejected"
	EventManagerExtension  Event = "manager_extension"
)

// Notification is the payload handed to the sink after a transition has
// already been committed.
type Notification struct {
	Event       Event
	RequestID   RequestID
	EmployeeID  EmployeeID
	RecipientID EmployeeID // who should be told; empty when unresolvable
	Payload     map[string]string
}

// NotificationSink receives events best-effort. A failing sink must log
// and swallow its own errors; the lifecycle never rolls back or blocks a
// committed transition on notification failure.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification)
}

// NopSink discards all notifications.
type NopSink struct{}

func (NopSink) Notify(ctx context.Context, n Notification) {}
