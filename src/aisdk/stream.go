package aisdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
)

// StreamInterface is implemented by every stream this package returns.
type StreamInterface[T any] interface {
	// Read returns the next element, or io.EOF once the stream is exhausted.
	Read() (T, error)
	Close() error
}

// StreamCallback is a function called for each element of a stream.
type StreamCallback[T any] func(item T) error

// StreamToCallback reads a stream and calls the callback for each element.
func StreamToCallback[T any](stream StreamInterface[T], callback StreamCallback[T]) error {
	defer stream.Close()

	for {
		item, err := stream.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := callback(item); err != nil {
			return err
		}
	}
}

// pipe carries parts from a producer goroutine to a single consumer. The
// channel is unbuffered so the producer never runs ahead of the consumer.
type pipe[T any] struct {
	ch     chan T
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func newPipe[T any](ctx context.Context) *pipe[T] {
	ctx, cancel := context.WithCancel(ctx)
	return &pipe[T]{
		ch:     make(chan T),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// send blocks until the consumer takes v. It returns false once the pipe has
// been closed by the consumer or the context ends.
func (p *pipe[T]) send(v T) bool {
	select {
	case p.ch <- v:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// finish is called by the producer when it has nothing more to send.
func (p *pipe[T]) finish() {
	close(p.ch)
	close(p.done)
	p.cancel()
}

func (p *pipe[T]) recv() (T, bool) {
	v, ok := <-p.ch
	return v, ok
}

// stop cancels the producer and waits for it to exit.
func (p *pipe[T]) stop() {
	p.cancel()
	<-p.done
}

// TextStream is the result of StreamText. It is consumed once, by one reader.
type TextStream struct {
	pipe    *pipe[StreamPart]
	pending *StreamPart

	mu       sync.Mutex
	messages []Message
	text     strings.Builder
	err      error
	closed   bool
}

// Read returns the next part or io.EOF. Error parts are returned as parts,
// not as errors; the stream ends right after one. A stream cut off by its
// context returns that error instead of io.EOF.
func (s *TextStream) Read() (StreamPart, error) {
	if s.pending != nil {
		part := *s.pending
		s.pending = nil
		return part, nil
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return StreamPart{}, io.EOF
	}
	part, ok := s.pipe.recv()
	if !ok {
		if err := s.Err(); err != nil {
			return StreamPart{}, err
		}
		return StreamPart{}, io.EOF
	}
	return part, nil
}

// Err is the error that ended the stream early, if any.
func (s *TextStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *TextStream) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// Close abandons the stream. Any tool call in flight is cancelled.
func (s *TextStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.pipe.stop()
	return nil
}

// Messages returns the assistant and tool messages produced so far, in order.
// After io.EOF it is the complete response.
func (s *TextStream) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Text returns all text deltas concatenated.
func (s *TextStream) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

func (s *TextStream) appendMessage(m Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
}

func (s *TextStream) appendText(delta string) {
	s.mu.Lock()
	s.text.WriteString(delta)
	s.mu.Unlock()
}

// ObjectPart is one element of a StreamObject sequence. In object mode every
// part carries a more complete Partial value. In array mode a part is emitted
// for each element once it is complete.
type ObjectPart struct {
	Partial json.RawMessage
	Element json.RawMessage
	Index   int
}

// ObjectStream is the result of StreamObject.
type ObjectStream struct {
	pipe *pipe[ObjectPart]

	mu     sync.Mutex
	final  json.RawMessage
	err    error
	closed bool
}

// Read returns the next part or io.EOF.
func (s *ObjectStream) Read() (ObjectPart, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ObjectPart{}, io.EOF
	}
	part, ok := s.pipe.recv()
	if !ok {
		return ObjectPart{}, io.EOF
	}
	return part, nil
}

// Close abandons the stream.
func (s *ObjectStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.pipe.stop()
	return nil
}

// Final drains the stream and returns the complete value. When the model
// output could not be parsed the request's fallback is returned.
func (s *ObjectStream) Final() (json.RawMessage, error) {
	for {
		if _, err := s.Read(); err != nil {
			break
		}
	}
	<-s.pipe.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.final, s.err
}

func (s *ObjectStream) setResult(v json.RawMessage, err error) {
	s.mu.Lock()
	s.final = v
	s.err = err
	s.mu.Unlock()
}
