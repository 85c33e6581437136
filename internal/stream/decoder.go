package stream

import "unicode/utf8"

// Decoder turns raw byte chunks into text. A multi-byte sequence split
// across a chunk boundary is held back and completed by the next chunk
// instead of being emitted as a replacement character.
type Decoder struct {
	tail []byte
}

// Write appends the chunk to any deferred bytes and returns the longest
// prefix that ends on a rune boundary. Incomplete trailing sequences are
// deferred, never rejected. Bytes that can no longer become a valid rune
// pass through unchanged so nothing is dropped.
func (d *Decoder) Write(chunk []byte) string {
	d.tail = append(d.tail, chunk...)

	valid := 0
	for i := 0; i < len(d.tail); {
		r, size := utf8.DecodeRune(d.tail[i:])
		if r == utf8.RuneError && size == 1 {
			if !utf8.FullRune(d.tail[i:]) {
				// Start of a sequence whose remaining bytes may
				// arrive with the next chunk.
				break
			}
			i++
			valid = i
			continue
		}
		i += size
		valid = i
	}

	if valid == 0 {
		return ""
	}
	out := string(d.tail[:valid])
	d.tail = d.tail[valid:]
	return out
}

// Buffered returns the number of deferred bytes awaiting completion.
func (d *Decoder) Buffered() int {
	return len(d.tail)
}
