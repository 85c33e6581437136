package jetstream

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/namikmesic/restream/internal/engine"
)

// DeltaMessage is the JSON payload published for each reconstructed text
// increment.
type DeltaMessage struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// DoneMessage closes out a session on the wire with its terminal state.
type DoneMessage struct {
	SessionID  string    `json:"session_id"`
	AccountID  string    `json:"account_id,omitempty"`
	State      string    `json:"state"`
	Error      string    `json:"error,omitempty"`
	Text       string    `json:"text"`
	DeltaCount int       `json:"delta_count"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// Publisher fans session events out over JetStream so subscribers (the
// session recorder, any display layer) receive the Delta sequence and the
// terminal state without touching session internals.
type Publisher struct {
	js nats.JetStreamContext
}

func NewPublisher(js nats.JetStreamContext) *Publisher {
	return &Publisher{js: js}
}

// PublishRaw relays one raw upstream chunk verbatim for archival.
func (p *Publisher) PublishRaw(sessionID uuid.UUID, chunk []byte) {
	if _, err := p.js.Publish(RawSubject(sessionID.String()), chunk); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("failed to publish raw chunk")
	}
}

func (p *Publisher) PublishDelta(sessionID uuid.UUID, d engine.Delta) {
	data, _ := json.Marshal(DeltaMessage{Index: d.Index, Text: d.Text})
	if _, err := p.js.Publish(DeltaSubject(sessionID.String()), data); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID.String()).Int("index", d.Index).Msg("failed to publish delta")
	}
}

func (p *Publisher) PublishDone(done DoneMessage) {
	data, _ := json.Marshal(done)
	if _, err := p.js.Publish(DoneSubject(done.SessionID), data); err != nil {
		log.Warn().Err(err).Str("session_id", done.SessionID).Msg("failed to publish terminal event")
	}
}
