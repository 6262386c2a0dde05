package queue

import "context"

// Job is the generic event handler contract. A job is polymorphic over one
// payload type and reports success or a typed failure; registering new jobs
// adds event kinds without touching the producers.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the message type the job handles.
	Type() string

	// Handle processes one payload.
	Handle(ctx context.Context, payload interface{}) error
}
