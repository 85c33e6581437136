package stream

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
)

// DoneSentinel is the reserved payload value that signals end-of-stream.
// Matching is by containment rather than equality to mirror the producer's
// observed framing.
const DoneSentinel = "[DONE]"

// Chat-completions streaming chunk, the producer's structured payload shape.
type ChatChunk struct {
	Choices []ChunkChoice `json:"choices"`
}

type ChunkChoice struct {
	Delta        ChunkDelta `json:"delta"`
	FinishReason string     `json:"finish_reason"`
}

type ChunkDelta struct {
	Content string `json:"content"`
}

// Interpret maps one frame payload to its text contribution. done reports
// the termination sentinel; no text accompanies it.
//
// A payload that decodes but lacks the choices[0].delta.content path
// contributes an empty delta: absence is not an error. A payload that does
// not decode at all is contributed verbatim, so non-conforming producers
// lose no bytes.
func Interpret(payload string) (text string, done bool) {
	if strings.Contains(payload, DoneSentinel) {
		return "", true
	}
	if payload == "" {
		return "", false
	}

	var chunk ChatChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		log.Debug().
			Err(err).
			Int("payload_bytes", len(payload)).
			Msg("malformed frame payload, falling back to verbatim text")
		return payload, false
	}
	if len(chunk.Choices) == 0 {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, false
}
