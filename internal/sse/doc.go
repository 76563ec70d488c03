// Package sse implements the publish/subscribe fan-out that keeps connected
// board clients in sync. A Broker owns the set of live subscribers, fans out
// named events to all of them best-effort, and prunes dead connections with a
// periodic heartbeat. Delivery is at-most-once; subscribers that cannot keep
// up are dropped rather than allowed to stall the rest.
package sse
