package engine

import (
	"strings"

	"github.com/google/uuid"
	"github.com/namikmesic/restream/internal/stream"
)

// State describes where a Session is in its lifecycle.
type State int

const (
	StateOpen   State = iota // accepting chunks
	StateClosed              // sentinel observed or natural end-of-stream
	StateFailed              // fatal transport error
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Delta is one increment of reconstructed text. Zero-length text is valid:
// heartbeats and metadata-only frames contribute nothing to the output but
// are still frames.
type Delta struct {
	Index int
	Text  string
}

// Session reconstructs ordered text for a single stream invocation. It owns
// its decoder state, carry-over buffer and accumulated output; nothing is
// shared across sessions. Not safe for concurrent use, never reused.
type Session struct {
	id        uuid.UUID
	decoder   stream.Decoder
	extractor stream.Extractor
	text      strings.Builder
	state     State
	err       error
	deltas    int
}

func NewSession() *Session {
	return &Session{id: uuid.New()}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Push feeds the next raw chunk through decode, frame extraction and
// payload interpretation, appending each resulting Delta to the
// accumulated text in order. An empty chunk yields no Deltas and changes
// nothing. Once the sentinel is observed no further frames contribute,
// including ones that arrive in the same chunk.
func (s *Session) Push(chunk []byte) []Delta {
	if s.state != StateOpen {
		return nil
	}
	decoded := s.decoder.Write(chunk)
	if decoded == "" {
		return nil
	}

	var out []Delta
	for _, frame := range s.extractor.Feed(decoded) {
		if s.state != StateOpen {
			break
		}
		text, done := stream.Interpret(frame.Payload)
		if done {
			s.state = StateClosed
			continue
		}
		s.deltas++
		s.text.WriteString(text)
		out = append(out, Delta{Index: s.deltas, Text: text})
	}
	return out
}

// Finish marks a natural end-of-stream. A partial frame still in the
// carry-over buffer never contributed to the output and is dropped with
// the session.
func (s *Session) Finish() {
	if s.state == StateOpen {
		s.state = StateClosed
	}
}

// Fail moves the session to its failed terminal state. Accumulated text is
// kept so the caller can tell a failed stream apart from one that ended
// normally.
func (s *Session) Fail(err error) {
	if s.state == StateOpen {
		s.state = StateFailed
		s.err = err
	}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Err() error {
	return s.err
}

// Text returns the accumulated output: the ordered concatenation of every
// Delta produced so far.
func (s *Session) Text() string {
	return s.text.String()
}

func (s *Session) DeltaCount() int {
	return s.deltas
}
