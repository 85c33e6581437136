package engine

import (
	"errors"
	"io"
)

const readBufferSize = 32 * 1024

// Reader drives a Session from a streaming body as a lazy, finite,
// non-restartable sequence of Deltas. It reads the body only when every
// previously produced Delta has been handed out, so the suspension point
// stays inside the caller-owned transport read.
type Reader struct {
	body    io.ReadCloser
	session *Session
	pending []Delta
	buf     []byte
	err     error
}

func NewReader(body io.ReadCloser, session *Session) *Reader {
	return &Reader{
		body:    body,
		session: session,
		buf:     make([]byte, readBufferSize),
	}
}

func (r *Reader) Session() *Session {
	return r.session
}

// Next returns the next Delta. It returns io.EOF once the session has
// reached a terminal state and all pending Deltas are drained. A transport
// read error fails the session; Deltas already reconstructed from the same
// read are still delivered before the error.
func (r *Reader) Next() (Delta, error) {
	for {
		if len(r.pending) > 0 {
			d := r.pending[0]
			r.pending = r.pending[1:]
			return d, nil
		}
		if r.err != nil {
			return Delta{}, r.err
		}
		if r.session.State() != StateOpen {
			r.err = io.EOF
			return Delta{}, io.EOF
		}

		n, err := r.body.Read(r.buf)
		if n > 0 {
			r.pending = append(r.pending, r.session.Push(r.buf[:n])...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.session.Finish()
				r.err = io.EOF
			} else {
				r.session.Fail(err)
				r.err = err
			}
		}
	}
}

func (r *Reader) Close() error {
	return r.body.Close()
}
