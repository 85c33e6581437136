package stream

import (
	"io"
)

// TeeReadCloser splits an upstream body so that reads flow to both the
// reconstruction engine and a background archive pipe. When the engine
// finishes reading (Close), the pipe is closed to signal EOF to the
// archive reader.
type TeeReadCloser struct {
	reader io.Reader
	body   io.ReadCloser
	pw     *io.PipeWriter
}

// TeeBody splits an io.ReadCloser into two:
//   - engineReader: the reconstruction path reads from this (data also
//     copied to the pipe)
//   - archiveReader: a background consumer reads the raw bytes from this
func TeeBody(body io.ReadCloser) (engineReader *TeeReadCloser, archiveReader *io.PipeReader) {
	pr, pw := io.Pipe()
	tee := io.TeeReader(body, pw)

	return &TeeReadCloser{
		reader: tee,
		body:   body,
		pw:     pw,
	}, pr
}

func (t *TeeReadCloser) Read(p []byte) (int, error) {
	n, err := t.reader.Read(p)
	if err != nil {
		// On any read error (including EOF), close the pipe writer so
		// the archive reader also gets EOF.
		t.pw.CloseWithError(err)
	}
	return n, err
}

func (t *TeeReadCloser) Close() error {
	t.pw.Close()
	return t.body.Close()
}
