package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateTask             OutboxAggregateType = "task"
	AggregateAnnouncement     OutboxAggregateType = "announcement"
	AggregatePushSubscription OutboxAggregateType = "push_subscription"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateTask,
	AggregateAnnouncement,
	AggregatePushSubscription,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventTaskCreated           OutboxEventType = "task_created"
	EventTaskUpdated           OutboxEventType = "task_updated"
	EventTaskDeleted           OutboxEventType = "task_deleted"
	EventAnnouncementCreated   OutboxEventType = "announcement_created"
	EventAnnouncementUpdated   OutboxEventType = "announcement_updated"
	EventAnnouncementDeleted   OutboxEventType = "announcement_deleted"
	EventPushDeliveryRequested OutboxEventType = "push_delivery_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventTaskCreated,
	EventTaskUpdated,
	EventTaskDeleted,
	EventAnnouncementCreated,
	EventAnnouncementUpdated,
	EventAnnouncementDeleted,
	EventPushDeliveryRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
