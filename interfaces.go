package zipline

import (
	"context"
	"io"
)

// Format is a compression format that a member's content may be
// encoded with.
type Format interface {
	// Name returns the name of the format, which is also the
	// file extension it is recognized by (e.g. ".gz").
	Name() string

	// Match returns true if the given name/stream is recognized.
	// Either argument may be empty: filename might be empty when
	// only the stream is known, and stream might be nil when only
	// the name is known. Match reads only as many bytes as needed
	// to determine a match; callers that want to keep the stream
	// intact must rewind or buffer it themselves.
	Match(filename string, stream io.Reader) (MatchResult, error)
}

// Compression is a compression format with both compress and decompress methods.
type Compression interface {
	Format
	Compressor
	Decompressor
}

// Compressor can compress data by wrapping a writer.
type Compressor interface {
	// OpenWriter wraps w with a new writer that compresses what is written.
	// The writer must be closed when writing is finished.
	OpenWriter(w io.Writer) (io.WriteCloser, error)
}

// Decompressor can decompress data by wrapping a reader.
type Decompressor interface {
	// OpenReader wraps r with a new reader that decompresses what is read.
	// The reader must be closed when reading is finished.
	OpenReader(r io.Reader) (io.ReadCloser, error)
}

// LineHandler is called for each line visited by ForEachLine.
// The line includes its terminator, if it had one, and may be
// retained by the handler. Returning ErrStopLines ends the
// iteration without an error; any other error aborts it and
// is returned to the caller.
type LineHandler func(ctx context.Context, line []byte) error
