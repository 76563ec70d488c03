package service

import "github.com/phrazzld/laneboard/internal/writequeue"

// Enqueuer accepts deferred write jobs.
// Implemented by writequeue.Queue; faked in tests with a synchronous runner.
type Enqueuer interface {
	Enqueue(job writequeue.Job)
}
