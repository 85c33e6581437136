package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/namikmesic/restream/internal/engine"
	"github.com/namikmesic/restream/internal/jetstream"
	"github.com/namikmesic/restream/internal/stream"
	"github.com/namikmesic/restream/internal/transport"
)

const archiveBufferSize = 32 * 1024

// EventPublisher is the produced interface: the Delta sequence plus the
// terminal state, fanned out to whoever subscribes.
type EventPublisher interface {
	PublishRaw(sessionID uuid.UUID, chunk []byte)
	PublishDelta(sessionID uuid.UUID, d engine.Delta)
	PublishDone(done jetstream.DoneMessage)
}

type sessionRequest struct {
	AccountID string `json:"account_id"`
}

// Handler drives one reconstruction Session per request: it opens the
// upstream stream, relays reconstructed text to the caller as it arrives,
// tees raw bytes to the archive and publishes the event sequence.
type Handler struct {
	client *transport.Client
	pub    EventPublisher
	mux    *http.ServeMux
}

func NewHandler(client *transport.Client, pub EventPublisher) *Handler {
	h := &Handler{client: client, pub: pub}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", h.handleSession)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux = mux
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
		http.Error(w, "account_id is required", http.StatusBadRequest)
		return
	}

	sess := engine.NewSession()
	started := time.Now()

	body, err := h.client.Open(r.Context(), transport.StreamRequest{AccountID: req.AccountID}, r.Header)
	if err != nil {
		// Fatal before any chunk: no partial output exists.
		sess.Fail(err)
		h.pub.PublishDone(doneMessage(sess, req.AccountID, started))
		log.Error().Err(err).Str("session_id", sess.ID().String()).Msg("could not open upstream stream")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	engineSide, archive := stream.TeeBody(body)
	reader := engine.NewReader(engineSide, sess)
	defer reader.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, archiveBufferSize)
		for {
			n, err := archive.Read(buf)
			if n > 0 {
				h.pub.PublishRaw(sess.ID(), buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Session-Id", sess.ID().String())
	w.Header().Set("Trailer", "X-Stream-State, X-Stream-Error")
	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)

	for {
		d, err := reader.Next()
		if err != nil {
			break
		}
		h.pub.PublishDelta(sess.ID(), d)
		if d.Text != "" {
			w.Write([]byte(d.Text))
			if canFlush {
				flusher.Flush()
			}
		}
	}

	// Terminal state travels in trailers so a caller can tell a stream
	// that failed mid-way from one that ended normally.
	w.Header().Set("X-Stream-State", sess.State().String())
	if err := sess.Err(); err != nil {
		w.Header().Set("X-Stream-Error", err.Error())
	}

	reader.Close()
	wg.Wait()
	h.pub.PublishDone(doneMessage(sess, req.AccountID, started))

	log.Info().
		Str("session_id", sess.ID().String()).
		Str("account_id", req.AccountID).
		Str("state", sess.State().String()).
		Int("deltas", sess.DeltaCount()).
		Int("text_len", len(sess.Text())).
		Dur("duration", time.Since(started)).
		Msg("session finished")
}

func doneMessage(sess *engine.Session, accountID string, started time.Time) jetstream.DoneMessage {
	done := jetstream.DoneMessage{
		SessionID:  sess.ID().String(),
		AccountID:  accountID,
		State:      sess.State().String(),
		Text:       sess.Text(),
		DeltaCount: sess.DeltaCount(),
		StartedAt:  started,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if err := sess.Err(); err != nil {
		done.Error = err.Error()
	}
	return done
}
