// Package service provides application-level services for the task board:
// swimlane and task operations, user registration and authentication.
//
// Board mutations follow a deferred-write pattern: the service validates the
// request and ownership synchronously, registers the operation with the
// idempotency guard, returns an optimistically projected result, and hands
// the actual persistence to the single-worker write queue. After a queued
// write commits, the corresponding event is broadcast so clients refetch.
// Read operations hit the store directly and always reflect committed state.
package service
