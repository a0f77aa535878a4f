package chat_engine

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// streamState tracks the header-sent boundary. Before streaming the caller
// may still answer with a plain HTTP status; once streaming, every outcome
// must be encoded as a stream event because the client has already switched
// to stream-consumption mode.
type streamState int

const (
	stateNotStarted streamState = iota
	stateStreaming
	stateDone
)

// doneSentinel terminates every stream, success or failure.
const doneSentinel = "[DONE]"

// EventStream frames chat outcomes as server-sent events.
type EventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	state   streamState
}

func NewEventStream(w http.ResponseWriter) *EventStream {
	s := &EventStream{w: w}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	return s
}

// Started reports whether SSE headers have been sent.
func (s *EventStream) Started() bool {
	return s.state != stateNotStarted
}

// Begin declares the SSE stream. Must be called before any provider call
// that can fail mid-stream.
func (s *EventStream) Begin() {
	if s.state != stateNotStarted {
		return
	}
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
	s.state = stateStreaming
}

// Fragment emits one generated fragment.
func (s *EventStream) Fragment(text string) error {
	return s.writeJSON(fragmentEvent{Content: text})
}

// Sources emits the deduplicated source attribution list. An empty list is
// still emitted as "sources": [].
func (s *EventStream) Sources(sources []SourceAttribution) error {
	if sources == nil {
		sources = []SourceAttribution{}
	}
	return s.writeJSON(sourcesEvent{Sources: sources})
}

// Error encodes a mid-stream failure as an event.
func (s *EventStream) Error(message, statusText string) error {
	return s.writeJSON(errorEvent{Error: true, Message: message, StatusText: statusText})
}

// End emits the terminal sentinel and closes the stream.
func (s *EventStream) End() error {
	if s.state == stateDone {
		return nil
	}
	err := s.writeRaw(doneSentinel)
	s.state = stateDone
	return err
}

type fragmentEvent struct {
	Content string `json:"content"`
}

type sourcesEvent struct {
	Sources []SourceAttribution `json:"sources"`
}

type errorEvent struct {
	Error      bool   `json:"error"`
	Message    string `json:"message"`
	StatusText string `json:"statusText"`
}

func (s *EventStream) writeJSON(event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.writeRaw(string(payload))
}

func (s *EventStream) writeRaw(data string) error {
	if s.state != stateStreaming {
		return fmt.Errorf("stream not writable in state %d", s.state)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
