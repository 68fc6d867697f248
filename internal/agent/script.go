package agent

import (
	"context"
	"sync"
	"time"
)

// Script is a Runtime that replays a fixed sequence of events. The simulate
// command uses it to run recorded transcripts through the supervisor, and
// tests use it as a deterministic upstream.
type Script struct {
	// Events are delivered in order.
	Events []Event
	// Delay, when set, is a pause before each event.
	Delay time.Duration
	// Fail, when set, terminates the stream with this error after the last
	// event.
	Fail error
	// Hang keeps the stream open forever after the last event, for
	// exercising the deadline.
	Hang bool
}

func (s *Script) Stream(ctx context.Context, req Request) (Stream, error) {
	st := &scriptStream{
		events: make(chan Event),
		done:   make(chan struct{}),
	}

	go func() {
		for _, event := range s.Events {
			if s.Delay > 0 {
				select {
				case <-time.After(s.Delay):
				case <-ctx.Done():
					st.err = ctx.Err()
					close(st.events)
					return
				case <-st.done:
					close(st.events)
					return
				}
			}
			select {
			case st.events <- event:
			case <-ctx.Done():
				st.err = ctx.Err()
				close(st.events)
				return
			case <-st.done:
				close(st.events)
				return
			}
		}
		if s.Hang {
			select {
			case <-ctx.Done():
				st.err = ctx.Err()
			case <-st.done:
			}
			close(st.events)
			return
		}
		st.err = s.Fail
		close(st.events)
	}()

	return st, nil
}

type scriptStream struct {
	events    chan Event
	err       error
	done      chan struct{}
	closeOnce sync.Once
}

func (s *scriptStream) Events() <-chan Event { return s.events }

func (s *scriptStream) Err() error { return s.err }

func (s *scriptStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
