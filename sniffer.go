package zipline

import (
	"bytes"
	"errors"
	"io"
)

var errSnifferDetached = errors.New("sniffer detached; read from the returned reader instead")

// sniffer buffers everything read through it so that the start of a
// non-seekable stream (such as a zip member) can be inspected by more
// than one format matcher. Call rewind before each matcher, then call
// detach to get a reader that replays the buffered bytes followed by
// the rest of the stream.
type sniffer struct {
	src io.Reader
	buf []byte
	pos int

	// sticky error from src
	err error
}

func newSniffer(src io.Reader) *sniffer {
	return &sniffer{src: src, buf: make([]byte, 0, 64)}
}

func (s *sniffer) Read(p []byte) (int, error) {
	if s.err != nil && s.err != io.EOF {
		return 0, s.err
	}
	if need := s.pos + len(p) - len(s.buf); need > 0 && s.err == nil {
		s.fill(need)
	}
	n := copy(p, s.buf[s.pos:])
	s.pos += n
	if n == 0 && s.err != nil {
		return 0, s.err
	}
	return n, nil
}

// fill reads up to n more bytes from src into the buffer.
// The read position does not move.
func (s *sniffer) fill(n int) {
	l := len(s.buf)
	s.buf = append(s.buf, make([]byte, n)...)
	var got int
	got, s.err = io.ReadFull(s.src, s.buf[l:])
	if s.err == io.ErrUnexpectedEOF {
		s.err = io.EOF
	}
	s.buf = s.buf[:l+got]
}

func (s *sniffer) rewind() { s.pos = 0 }

// empty reports whether src ended without yielding a single byte.
// A read error other than EOF does not count as empty.
func (s *sniffer) empty() bool {
	if len(s.buf) == 0 && s.err == nil {
		s.fill(1)
	}
	return len(s.buf) == 0 && s.err == io.EOF
}

// detach returns a reader positioned at the start of the stream.
// The sniffer itself must not be read from afterwards.
func (s *sniffer) detach() io.Reader {
	buffered := s.buf
	err := s.err
	s.err = errSnifferDetached
	if err != nil && err != io.EOF {
		return io.MultiReader(bytes.NewReader(buffered), errReader{err})
	}
	return io.MultiReader(bytes.NewReader(buffered), s.src)
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
