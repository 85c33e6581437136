package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloads(frames []Frame) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.Payload
	}
	return out
}

func TestExtractorSingleFrame(t *testing.T) {
	var e Extractor
	frames := e.Feed("data: {\"a\":1}\n")
	require.Len(t, frames, 1)
	assert.Equal(t, `{"a":1}`, frames[0].Payload)
	assert.Equal(t, 1, frames[0].Index)
	assert.Equal(t, 0, e.Buffered())
}

func TestExtractorEmptyInput(t *testing.T) {
	var e Extractor
	assert.Empty(t, e.Feed(""))
}

func TestExtractorNoSpaceAfterToken(t *testing.T) {
	var e Extractor
	frames := e.Feed("data:hi\n")
	require.Len(t, frames, 1)
	assert.Equal(t, "hi", frames[0].Payload)
}

func TestExtractorEmptyPayload(t *testing.T) {
	var e Extractor
	frames := e.Feed("data: \n")
	require.Len(t, frames, 1)
	assert.Equal(t, "", frames[0].Payload)
}

func TestExtractorCRLF(t *testing.T) {
	var e Extractor
	frames := e.Feed("data: hi\r\ndata: ho\r\n")
	assert.Equal(t, []string{"hi", "ho"}, payloads(frames))
}

func TestExtractorDiscardsNonFrameText(t *testing.T) {
	var e Extractor
	frames := e.Feed("event: message\nid: 3\ndata: hi\n\n")
	require.Len(t, frames, 1)
	assert.Equal(t, "hi", frames[0].Payload)
}

func TestExtractorPartialTokenAcrossChunks(t *testing.T) {
	var e Extractor
	assert.Empty(t, e.Feed("da"))
	frames := e.Feed("ta: hello\n")
	require.Len(t, frames, 1)
	assert.Equal(t, "hello", frames[0].Payload)
}

func TestExtractorPayloadSplitAcrossChunks(t *testing.T) {
	var e Extractor
	assert.Empty(t, e.Feed(`data: {"choi`))
	frames := e.Feed(`ces":[{"delta":{"content":"Hi"}}]}` + "\n")
	require.Len(t, frames, 1)
	assert.Equal(t, `{"choices":[{"delta":{"content":"Hi"}}]}`, frames[0].Payload)
}

func TestExtractorStructuredPayloadWithNewlines(t *testing.T) {
	// A structured payload containing a raw line break must not be cut at
	// the first newline; it ends at its balanced closing brace.
	var e Extractor
	frames := e.Feed("data: {\"text\":\"line1\nline2\"}\n")
	require.Len(t, frames, 1)
	assert.Equal(t, "{\"text\":\"line1\nline2\"}", frames[0].Payload)
}

func TestExtractorBraceInsideString(t *testing.T) {
	var e Extractor
	frames := e.Feed(`data: {"t":"}"}` + "\n")
	require.Len(t, frames, 1)
	assert.Equal(t, `{"t":"}"}`, frames[0].Payload)
}

func TestExtractorEscapedQuoteInsideString(t *testing.T) {
	var e Extractor
	frames := e.Feed(`data: {"t":"a\"}b"}` + "\n")
	require.Len(t, frames, 1)
	assert.Equal(t, `{"t":"a\"}b"}`, frames[0].Payload)
}

func TestExtractorBracketPayload(t *testing.T) {
	var e Extractor
	frames := e.Feed("data: [DONE]\n")
	require.Len(t, frames, 1)
	assert.Equal(t, "[DONE]", frames[0].Payload)
}

func TestExtractorTrailingPartialFrameStaysBuffered(t *testing.T) {
	var e Extractor
	frames := e.Feed(`data: hi` + "\n" + `data: {"unfinish`)
	require.Len(t, frames, 1)
	assert.Equal(t, "hi", frames[0].Payload)
	assert.Greater(t, e.Buffered(), 0)

	// Completing the frame later yields it exactly once.
	frames = e.Feed(`ed":true}` + "\n")
	require.Len(t, frames, 1)
	assert.Equal(t, `{"unfinished":true}`, frames[0].Payload)
}

func TestExtractorSplitAtEveryOffset(t *testing.T) {
	canonical := "junk before\n" +
		"data: {\"x\":\"y\"}\n\n" +
		"data: plain text\n" +
		"data: [DONE]\n"
	want := []string{`{"x":"y"}`, "plain text", "[DONE]"}

	for cut := 0; cut <= len(canonical); cut++ {
		var e Extractor
		var got []string
		got = append(got, payloads(e.Feed(canonical[:cut]))...)
		got = append(got, payloads(e.Feed(canonical[cut:]))...)
		require.Equalf(t, want, got, "split at byte %d", cut)
	}
}

func TestExtractorFrameIndicesAreOrdinal(t *testing.T) {
	var e Extractor
	e.Feed("data: a\n")
	frames := e.Feed("data: b\ndata: c\n")
	require.Len(t, frames, 2)
	assert.Equal(t, 2, frames[0].Index)
	assert.Equal(t, 3, frames[1].Index)
}
