package stream

import "strings"

const dataToken = "data:"

// Frame is one data: payload unit extracted from the decoded stream.
type Frame struct {
	Index   int    // ordinal within this session's stream
	Payload string // payload text with the data: prefix and terminator removed
}

// Extractor scans decoded text for complete data: frames. It keeps a
// carry-over buffer across calls so a frame split at any byte offset is
// completed by later input instead of being truncated or duplicated.
type Extractor struct {
	buf        string
	frameIndex int
}

// Feed appends text to the carry-over buffer and consumes every complete
// frame from its front. Text that is not part of a frame is discarded,
// except a trailing run that may still grow into the data: token itself.
// A trailing partial frame stays buffered and is never yielded.
func (e *Extractor) Feed(text string) []Frame {
	e.buf += text

	var frames []Frame
	for {
		start := strings.Index(e.buf, dataToken)
		if start == -1 {
			e.buf = e.buf[len(e.buf)-partialTokenLen(e.buf):]
			return frames
		}
		e.buf = e.buf[start:]

		payload, consumed, ok := scanPayload(e.buf[len(dataToken):])
		if !ok {
			return frames
		}
		e.frameIndex++
		frames = append(frames, Frame{Index: e.frameIndex, Payload: payload})
		e.buf = e.buf[len(dataToken)+consumed:]
	}
}

// Buffered returns the number of carried-over bytes not yet known to form
// a complete frame.
func (e *Extractor) Buffered() int {
	return len(e.buf)
}

// partialTokenLen returns the length of the longest suffix of s that is a
// proper prefix of the data: token. That suffix must survive the discard
// pass: the rest of the token may arrive with the next chunk.
func partialTokenLen(s string) int {
	max := len(dataToken) - 1
	if max > len(s) {
		max = len(s)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(s, dataToken[:n]) {
			return n
		}
	}
	return 0
}

// scanPayload reads one payload from rest, which starts immediately after
// the data: token. A payload opening with a brace or bracket ends at its
// balanced closing delimiter, so structured payloads containing raw
// newlines are not cut short. Anything else ends at the next line
// terminator. ok is false while the payload is still incomplete.
func scanPayload(rest string) (payload string, consumed int, ok bool) {
	i := 0
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
		i++
	}
	if i == len(rest) {
		return "", 0, false
	}

	if rest[i] == '{' || rest[i] == '[' {
		end, done := scanBalanced(rest[i:])
		if !done {
			return "", 0, false
		}
		return rest[i : i+end], i + end + terminatorLen(rest[i+end:]), true
	}

	nl := strings.IndexByte(rest[i:], '\n')
	if nl == -1 {
		return "", 0, false
	}
	payload = strings.TrimSuffix(rest[i:i+nl], "\r")
	return payload, i + nl + 1, true
}

// scanBalanced finds the end of a brace- or bracket-delimited payload,
// tracking JSON string state so delimiters inside strings do not count.
func scanBalanced(s string) (end int, ok bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// terminatorLen returns how many bytes of line terminator follow a
// structurally complete payload, so the boundary is consumed with it.
func terminatorLen(s string) int {
	switch {
	case strings.HasPrefix(s, "\r\n"):
		return 2
	case strings.HasPrefix(s, "\n"), strings.HasPrefix(s, "\r"):
		return 1
	}
	return 0
}
