// Package subscription forwards values produced by a datasource to a consumer channel,
// with a side channel for errors and a cooperative unsubscribe.
package subscription

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

// BufferSize is the number of values and errors a subscription holds while the consumer is busy.
var BufferSize = 8

var ErrClosed = errors.Wrap(errs.Closed, "subscription is closed")

// Subscription is the producer side of a stream of values.
type Subscription[T any] struct {
	out  chan<- T
	in   chan T
	errs chan error

	unsubscribeOnce sync.Once
	// quit asks the forwarding loop to stop. done is closed once it has stopped writing to out.
	quit chan struct{}
	done chan struct{}
}

func NewSubscription[T any](out chan<- T) *Subscription[T] {
	s := &Subscription[T]{
		out:  out,
		in:   make(chan T, BufferSize),
		errs: make(chan error, BufferSize),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.forward()
	return s
}

func (s *Subscription[T]) forward() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case value := <-s.in:
			select {
			case s.out <- value:
			case <-s.quit:
				return
			}
		}
	}
}

func (s *Subscription[T]) Unsubscribe() {
	_ = s.UnsubscribeWithContext(context.Background())
}

// UnsubscribeWithContext stops forwarding and waits for the loop to exit. Only the first call has an effect.
func (s *Subscription[T]) UnsubscribeWithContext(ctx context.Context) (err error) {
	s.unsubscribeOnce.Do(func() {
		select {
		case s.quit <- struct{}{}:
			<-s.done
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return errors.WithStack(err)
}

// Client returns the consumer view of the subscription.
func (s *Subscription[T]) Client() *ClientSubscription[T] {
	return &ClientSubscription[T]{s: s}
}

func (s *Subscription[T]) Err() <-chan error {
	return s.errs
}

func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription[T]) IsClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Send queues value for the consumer. It returns ErrClosed once the subscription is closed.
func (s *Subscription[T]) Send(ctx context.Context, value T) error {
	select {
	case s.in <- value:
		return nil
	case <-s.done:
		return errors.WithStack(ErrClosed)
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// SendError queues err for the consumer. It returns ErrClosed once the subscription is closed.
func (s *Subscription[T]) SendError(ctx context.Context, err error) error {
	select {
	case s.errs <- err:
		return nil
	case <-s.done:
		return errors.WithStack(ErrClosed)
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// ClientSubscription lets the consumer watch for errors and unsubscribe, without sending.
type ClientSubscription[T any] struct {
	s *Subscription[T]
}

func (c *ClientSubscription[T]) Unsubscribe() {
	c.s.Unsubscribe()
}

func (c *ClientSubscription[T]) UnsubscribeWithContext(ctx context.Context) error {
	return c.s.UnsubscribeWithContext(ctx)
}

func (c *ClientSubscription[T]) Err() <-chan error {
	return c.s.Err()
}

func (c *ClientSubscription[T]) Done() <-chan struct{} {
	return c.s.Done()
}

func (c *ClientSubscription[T]) IsClosed() bool {
	return c.s.IsClosed()
}
