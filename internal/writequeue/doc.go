// Package writequeue provides a bounded, single-worker queue that serializes
// persistence writes. Read paths hit the store directly; write paths enqueue
// a job and return an optimistic response, trading read-your-write
// consistency for fast mutation responses. SSE broadcasts prompt clients to
// refetch, which reconciles any discarded failed write.
package writequeue
