package processor

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/namikmesic/restream/internal/jetstream"
	"github.com/namikmesic/restream/internal/storage"
)

// JobQueue accepts storage write jobs. Satisfied by storage.BatchWriter.
type JobQueue interface {
	Enqueue(job storage.WriteJob)
}

// Processor is the session recorder: it consumes a session's raw, delta
// and done messages from JetStream and turns them into storage jobs once
// the terminal event arrives.
type Processor struct {
	writer JobQueue

	mu       sync.Mutex
	sessions map[string]*pendingSession
}

type pendingSession struct {
	deltas  []storage.DeltaRecord
	bytesIn int64
}

func New(writer JobQueue) *Processor {
	return &Processor{
		writer:   writer,
		sessions: make(map[string]*pendingSession),
	}
}

// StartConsumer subscribes to every session subject and blocks until ctx
// is cancelled.
func (p *Processor) StartConsumer(ctx context.Context, js nats.JetStreamContext) {
	sub, err := js.Subscribe(jetstream.AllSessionSubjects, p.handle,
		nats.Durable("restream-recorder"),
		nats.ManualAck(),
		nats.AckExplicit(),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to subscribe to session subjects")
		return
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		log.Warn().Err(err).Msg("failed to drain session consumer")
	}
}

func (p *Processor) handle(msg *nats.Msg) {
	defer msg.Ack()

	// Subject shape: restream.session.<id>.<kind>
	parts := strings.Split(msg.Subject, ".")
	if len(parts) != 4 {
		return
	}
	sessionID, kind := parts[2], parts[3]

	switch kind {
	case "raw":
		p.addRaw(sessionID, len(msg.Data))
	case "delta":
		p.addDelta(sessionID, msg.Data)
	case "done":
		p.finishSession(sessionID, msg.Data)
	}
}

func (p *Processor) addRaw(sessionID string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending(sessionID).bytesIn += int64(n)
}

func (p *Processor) addDelta(sessionID string, data []byte) {
	var d jetstream.DeltaMessage
	if err := json.Unmarshal(data, &d); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("bad delta message")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	pend := p.pending(sessionID)
	pend.deltas = append(pend.deltas, storage.DeltaRecord{Index: d.Index, Content: d.Text})
}

func (p *Processor) finishSession(sessionID string, data []byte) {
	var done jetstream.DoneMessage
	if err := json.Unmarshal(data, &done); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("bad terminal message")
		return
	}

	id, err := uuid.Parse(sessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("bad session id in subject")
		return
	}

	p.mu.Lock()
	pend := p.pending(sessionID)
	delete(p.sessions, sessionID)
	p.mu.Unlock()

	p.writer.Enqueue(storage.InsertSessionJob(&storage.SessionRecord{
		ID:           id,
		Timestamp:    done.StartedAt,
		AccountID:    done.AccountID,
		State:        done.State,
		ErrorMessage: done.Error,
		OutputText:   done.Text,
		DeltaCount:   done.DeltaCount,
		BytesIn:      pend.bytesIn,
		DurationMs:   int(done.DurationMs),
	}))
	if len(pend.deltas) > 0 {
		p.writer.Enqueue(storage.InsertDeltasJob(id, done.StartedAt, pend.deltas))
	}

	log.Debug().
		Str("session_id", sessionID).
		Str("state", done.State).
		Int("deltas", len(pend.deltas)).
		Int64("bytes_in", pend.bytesIn).
		Msg("session recorded")
}

// pending returns the accumulation for a session, creating it on first
// touch. Callers hold p.mu.
func (p *Processor) pending(sessionID string) *pendingSession {
	pend, ok := p.sessions[sessionID]
	if !ok {
		pend = &pendingSession{}
		p.sessions[sessionID] = pend
	}
	return pend
}
