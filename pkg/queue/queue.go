package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrQueueFull is returned when a bounded queue rejects a message. The
// producer decides what that means; dispatch producers surface it instead of
// blocking the ingestion path.
var ErrQueueFull = errors.New("queue full")

// QueueService is the producer-side contract: submit a typed event without
// waiting for its completion.
type QueueService interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// Backend is a full queue implementation: producer side plus lifecycle and
// job registration. MemoryQueue and RedisQueue both satisfy it.
type Backend interface {
	QueueService
	RegisterJob(job Job)
	Start() error
	Stop(ctx context.Context) error
}

// QueueConfig contains worker pool sizing and queue-level redelivery policy.
// Jobs that own their retries (the trade executor does) run with
// RetryLimit 0.
type QueueConfig struct {
	Workers    int           // number of workers
	QueueSize  int           // bounded queue capacity
	RetryLimit int           // queue-level redeliveries for a failed message
	RetryDelay time.Duration // delay before a redelivery
}

// Message is one queued event.
type Message struct {
	ID        string
	Type      string
	Payload   interface{}
	Attempts  int
	Timestamp time.Time
}

// ParsePayload coerces a queue payload into its concrete type. In-process
// queues hand the value through untouched; the redis queue round-trips
// through JSON.
func ParsePayload[T any](payload interface{}) (*T, error) {
	var result T

	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	default:
		return nil, fmt.Errorf("invalid payload type: %T", payload)
	}
}
