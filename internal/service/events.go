package service

// Event names broadcast over the SSE channel after a queued write commits.
// Clients treat each as a refetch prompt rather than a state carrier.
const (
	// EventTaskUpdated is sent when a task is created, updated, moved, or
	// its comments change. The payload is the task's projected state.
	EventTaskUpdated = "task-updated"

	// EventTaskDeleted is sent when a task is removed. The payload is the
	// deleted task's ID.
	EventTaskDeleted = "task-deleted"

	// EventLaneUpdated is sent when a swimlane is created, renamed,
	// completed, reopened, soft-deleted, or reordered.
	EventLaneUpdated = "lane-updated"
)

// Broadcaster fans an event out to connected clients.
// Implemented by sse.Broker; faked in tests.
type Broadcaster interface {
	Broadcast(name string, data any)
}
