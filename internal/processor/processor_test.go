package processor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namikmesic/restream/internal/jetstream"
	"github.com/namikmesic/restream/internal/storage"
)

type captureQueue struct {
	jobs []storage.WriteJob
}

func (q *captureQueue) Enqueue(job storage.WriteJob) {
	q.jobs = append(q.jobs, job)
}

func deltaMsg(t *testing.T, sessionID string, index int, text string) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(jetstream.DeltaMessage{Index: index, Text: text})
	require.NoError(t, err)
	return &nats.Msg{Subject: jetstream.DeltaSubject(sessionID), Data: data}
}

func doneMsg(t *testing.T, done jetstream.DoneMessage) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(done)
	require.NoError(t, err)
	return &nats.Msg{Subject: jetstream.DoneSubject(done.SessionID), Data: data}
}

func TestProcessorRecordsSessionOnDone(t *testing.T) {
	q := &captureQueue{}
	p := New(q)
	id := uuid.New().String()

	p.handle(&nats.Msg{Subject: jetstream.RawSubject(id), Data: []byte("data: hi\n")})
	p.handle(deltaMsg(t, id, 1, "hi"))
	p.handle(deltaMsg(t, id, 2, " there"))
	assert.Empty(t, q.jobs, "nothing is written before the terminal event")

	p.handle(doneMsg(t, jetstream.DoneMessage{
		SessionID:  id,
		AccountID:  "acct-1",
		State:      "closed",
		Text:       "hi there",
		DeltaCount: 2,
		StartedAt:  time.Now(),
	}))

	// One session insert plus one delta batch.
	assert.Len(t, q.jobs, 2)
	assert.Empty(t, p.sessions, "pending state is released after recording")
}

func TestProcessorDoneWithoutDeltas(t *testing.T) {
	q := &captureQueue{}
	p := New(q)
	id := uuid.New().String()

	p.handle(doneMsg(t, jetstream.DoneMessage{
		SessionID: id,
		State:     "failed",
		Error:     "upstream transport unavailable",
		StartedAt: time.Now(),
	}))

	assert.Len(t, q.jobs, 1)
}

func TestProcessorIgnoresMalformedMessages(t *testing.T) {
	q := &captureQueue{}
	p := New(q)
	id := uuid.New().String()

	p.handle(&nats.Msg{Subject: jetstream.DeltaSubject(id), Data: []byte("not json")})
	p.handle(&nats.Msg{Subject: "restream.session", Data: nil})
	p.handle(&nats.Msg{Subject: jetstream.DoneSubject("not-a-uuid"), Data: []byte("{}")})

	assert.Empty(t, q.jobs)
}
