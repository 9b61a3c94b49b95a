package alerts

import (
	"context"
	"errors"
	"fmt"
)

// MultiSender sends alerts to multiple destinations
type MultiSender struct {
	senders []Sender
}

// NewMultiSender creates a new multi-sender
func NewMultiSender(senders ...Sender) *MultiSender {
	return &MultiSender{
		senders: senders,
	}
}

// Send sends the alert to all configured senders. A forbidden result from
// any sender is surfaced as ErrForbidden so subscription cleanup still fires.
func (s *MultiSender) Send(ctx context.Context, chatID int64, event *Event) error {
	var errs []error
	forbidden := false
	for i, sender := range s.senders {
		if err := sender.Send(ctx, chatID, event); err != nil {
			if errors.Is(err, ErrForbidden) {
				forbidden = true
			}
			errs = append(errs, fmt.Errorf("sender %d: %w", i, err))
		}
	}

	if forbidden {
		return fmt.Errorf("multi-sender errors: %v: %w", errs, ErrForbidden)
	}
	if len(errs) > 0 {
		return fmt.Errorf("multi-sender errors: %v", errs)
	}

	return nil
}
