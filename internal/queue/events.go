package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"rollcall/internal/attendance"
)

// TypeSubmitted marks messages carrying an attendance.Submitted body.
const TypeSubmitted = "attendance.submitted"

// SubmissionPublisher announces accepted submissions on a queue.
type SubmissionPublisher struct {
	Queue Queue
}

// PublishSubmitted encodes evt and publishes it.
func (p SubmissionPublisher) PublishSubmitted(ctx context.Context, evt attendance.Submitted) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("queue: encode submitted event: %w", err)
	}
	return p.Queue.Publish(ctx, Message{Type: TypeSubmitted, Body: body})
}

// DecodeSubmitted reads the body of a TypeSubmitted message.
func DecodeSubmitted(msg Message) (attendance.Submitted, error) {
	var evt attendance.Submitted
	if msg.Type != TypeSubmitted {
		return evt, fmt.Errorf("queue: message type %q is not %q", msg.Type, TypeSubmitted)
	}
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		return evt, fmt.Errorf("queue: decode submitted event: %w", err)
	}
	return evt, nil
}
