package zipline

import (
	"bufio"
	"io"
	"iter"

	"github.com/hashicorp/go-multierror"
)

// Lines is a lazy, single-pass sequence of the lines of one archive
// member. Lines are split on '\n' and keep their terminator; a final
// line without one is returned as-is, so concatenating every line
// reproduces the member's content exactly.
//
// The archive and member stream are released as soon as Next returns
// false. Call Close to release them when stopping early; it is safe
// to call Close more than once. A Lines value must not be used from
// more than one goroutine at a time.
type Lines struct {
	archivePath string
	member      string

	br *bufio.Reader

	// innermost first: decompressor, member stream, archive
	closers []io.Closer

	line []byte
	err  error
	eof  bool
	done bool
}

func newLines(archivePath, member string, r io.Reader, closers []io.Closer) *Lines {
	return &Lines{
		archivePath: archivePath,
		member:      member,
		br:          bufio.NewReader(r),
		closers:     closers,
	}
}

// Next advances to the next line, which is then available through
// Bytes. It returns false when the member is exhausted or reading
// failed; check Err to tell the two apart.
func (l *Lines) Next() bool {
	l.line = nil
	if l.done {
		return false
	}
	if l.eof {
		l.finish(nil)
		return false
	}

	line, err := l.br.ReadBytes('\n')
	switch {
	case err == io.EOF:
		l.eof = true
		if len(line) == 0 {
			l.finish(nil)
			return false
		}
	case err != nil:
		l.finish(ioError(l.archivePath, l.member, err))
		return false
	}

	l.line = line
	return true
}

// Bytes returns the current line, including its terminator if it
// had one. The slice is not reused by later calls and may be kept.
func (l *Lines) Bytes() []byte { return l.line }

// Err returns the first error encountered while reading or
// releasing the member, or nil if the sequence ended normally
// (or has not ended yet).
func (l *Lines) Err() error { return l.err }

// Close releases the member stream and its archive. Closing before
// the sequence is exhausted discards the remaining lines.
func (l *Lines) Close() error {
	l.line = nil
	if l.done {
		return nil
	}
	l.done = true
	if err := l.release(); err != nil {
		return ioError(l.archivePath, l.member, err)
	}
	return nil
}

// All returns an iterator over the remaining lines. If reading
// fails, the error is yielded once, with a nil line, as the last
// element. Breaking out of the loop closes the sequence.
func (l *Lines) All() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		defer l.Close()
		for l.Next() {
			if !yield(l.Bytes(), nil) {
				return
			}
		}
		if err := l.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// finish ends the sequence with err (which may be nil) and
// releases resources. A failure to release is only reported
// if nothing else went wrong first.
func (l *Lines) finish(err error) {
	l.done = true
	l.err = err
	if cerr := l.release(); cerr != nil && l.err == nil {
		l.err = ioError(l.archivePath, l.member, cerr)
	}
}

// release closes every held resource exactly once, innermost first.
func (l *Lines) release() error {
	var result *multierror.Error
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	l.closers = nil
	return result.ErrorOrNil()
}
