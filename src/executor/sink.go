package executor

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// StreamSink writes events to w as newline-delimited JSON frames and flushes
// after every frame when w is an http.Flusher. After the first write error
// the sink is detached: later events are dropped and Send returns
// ErrSinkDetached, so the turn can still finish without a reader.
type StreamSink struct {
	mu       sync.Mutex
	w        io.Writer
	enc      *json.Encoder
	flusher  http.Flusher
	logger   *slog.Logger
	detached bool
	closed   bool
}

// NewStreamSink creates a sink writing to w.
func NewStreamSink(w io.Writer, logger *slog.Logger) *StreamSink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &StreamSink{
		w:      w,
		enc:    json.NewEncoder(w),
		logger: logger,
	}
	s.enc.SetEscapeHTML(false)
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	return s
}

// Send implements EventSink.
func (s *StreamSink) Send(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	if s.detached {
		return ErrSinkDetached
	}
	if err := s.enc.Encode(NewFrame(event)); err != nil {
		s.detach(err)
		return ErrSinkDetached
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Flush implements EventSink.
func (s *StreamSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached || s.closed {
		return nil
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Close implements EventSink. It does not close the underlying writer.
func (s *StreamSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Detached reports whether the reader went away.
func (s *StreamSink) Detached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detached
}

func (s *StreamSink) detach(err error) {
	s.detached = true
	s.logger.Info("client went away, dropping further events", "error", err)
}

// ChannelEventSink implements EventSink using Go channels. Events are handed
// to every processor in order on a single goroutine.
type ChannelEventSink struct {
	mu         sync.Mutex
	events     chan Event
	processors []EventProcessor
	pending    sync.WaitGroup
	done       chan struct{}
	closed     bool
	logger     *slog.Logger
}

// NewChannelEventSink creates a new channel-based event sink
func NewChannelEventSink(bufferSize int, logger *slog.Logger, processors ...EventProcessor) *ChannelEventSink {
	if logger == nil {
		logger = slog.Default()
	}
	sink := &ChannelEventSink{
		events:     make(chan Event, bufferSize),
		processors: processors,
		done:       make(chan struct{}),
		logger:     logger,
	}

	go sink.processEvents()

	return sink
}

// Send sends an event to the sink
func (s *ChannelEventSink) Send(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.pending.Add(1)
	s.events <- event
	return nil
}

// Flush waits until every queued event has been processed.
func (s *ChannelEventSink) Flush() error {
	s.pending.Wait()
	for _, p := range s.processors {
		if f, ok := p.(interface{ Flush() error }); ok {
			if err := f.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the event sink
func (s *ChannelEventSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()
	<-s.done

	for _, p := range s.processors {
		if err := p.Close(); err != nil {
			s.logger.Warn("error closing processor", "error", err)
		}
	}

	return nil
}

// processEvents processes events from the channel
func (s *ChannelEventSink) processEvents() {
	defer close(s.done)

	for event := range s.events {
		for _, processor := range s.processors {
			if err := processor.Process(event); err != nil {
				s.logger.Warn("error processing event", "type", event.EventType(), "error", err)
			}
		}
		s.pending.Done()
	}
}

// CollectingSink keeps every event in memory.
type CollectingSink struct {
	mu      sync.Mutex
	events  []Event
	flushes int
	closed  bool
}

// NewCollectingSink returns an empty sink.
func NewCollectingSink() *CollectingSink {
	return &CollectingSink{}
}

func (s *CollectingSink) Send(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.events = append(s.events, event)
	return nil
}

func (s *CollectingSink) Flush() error {
	s.mu.Lock()
	s.flushes++
	s.mu.Unlock()
	return nil
}

func (s *CollectingSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Events returns a copy of the events received.
func (s *CollectingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Types returns the type of every event received.
func (s *CollectingSink) Types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.EventType()
	}
	return out
}

// Text concatenates every TextDelta.
func (s *CollectingSink) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for _, e := range s.events {
		if d, ok := e.(TextDelta); ok {
			b.WriteString(d.Delta)
		}
	}
	return b.String()
}

// Flushes is the number of Flush calls.
func (s *CollectingSink) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// Closed reports whether Close was called.
func (s *CollectingSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
