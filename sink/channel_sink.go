package sink

import (
	"context"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
)

// ChannelSink bridges the registry and one subscriber connection.
// Consume is called by the registry during fan-out; the connection
// handler drains Events and pushes them onto the wire.
type ChannelSink struct {
	Events chan domain.Message

	deliveryTimeout time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

var _ contract.EventSink = (*ChannelSink)(nil)

func NewChannelSink(bufferSize int, deliveryTimeout time.Duration) *ChannelSink {
	return &ChannelSink{
		Events:          make(chan domain.Message, bufferSize),
		deliveryTimeout: deliveryTimeout,
		done:            make(chan struct{}),
	}
}

// Consume hands the message to the owning connection. The attempt is
// bounded by the delivery timeout so one stalled subscriber cannot hold
// up a broadcast. An error means the sink must be dropped by the caller.
func (s *ChannelSink) Consume(ctx context.Context, m domain.Message) error {
	select {
	case <-s.done:
		return errors.ErrSinkClosed
	default:
	}

	timer := time.NewTimer(s.deliveryTimeout)
	defer timer.Stop()

	select {
	case s.Events <- m:
		return nil
	case <-s.done:
		return errors.ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.ErrDeliveryTimeout
	}
}

// Close marks the sink as dead. Safe to call multiple times and
// concurrently with an in-flight Consume.
func (s *ChannelSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
