package zipline

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// RegisterFormat registers a member compression format. It should be
// called during init. Duplicate formats by name are not allowed and
// will panic.
func RegisterFormat(format Compression) {
	name := strings.Trim(strings.ToLower(format.Name()), ".")
	for _, existing := range formats {
		if strings.Trim(strings.ToLower(existing.Name()), ".") == name {
			panic("format " + name + " is already registered")
		}
	}
	formats = append(formats, format)
}

// RegisteredFormats returns the registered member compression
// formats in registration order.
func RegisteredFormats() []Compression {
	return append([]Compression(nil), formats...)
}

// Identify returns the registered compression format that matches the
// given member name and/or stream. Only a small header of the stream is
// read; the returned reader yields the full stream from its beginning
// and must be used instead of stream from then on.
//
// If no format matches, ErrNoMatch is returned along with the
// (still usable) replacement reader.
func Identify(filename string, stream io.Reader) (Compression, io.Reader, error) {
	return identify(formats, filename, stream)
}

func identify(candidates []Compression, filename string, stream io.Reader) (Compression, io.Reader, error) {
	if stream == nil {
		stream = strings.NewReader("")
	}
	return identifySniffed(candidates, filename, newSniffer(stream))
}

func identifySniffed(candidates []Compression, filename string, s *sniffer) (Compression, io.Reader, error) {
	// a stream match is stronger than a name match, since member names
	// are not always indicative of their contents
	var byName Compression
	for _, format := range candidates {
		s.rewind()
		mr, err := format.Match(filename, s)
		if err != nil {
			return nil, s.detach(), fmt.Errorf("matching %s: %w", format.Name(), err)
		}
		if mr.ByStream {
			return format, s.detach(), nil
		}
		if mr.ByName && byName == nil {
			byName = format
		}
	}
	if byName != nil {
		return byName, s.detach(), nil
	}
	return nil, s.detach(), ErrNoMatch
}

// readAtMost reads at most n bytes from the stream. A nil, empty, or short
// stream is not an error. The returned slice of bytes may have length < n
// without an error.
func readAtMost(stream io.Reader, n int) ([]byte, error) {
	if stream == nil || n <= 0 {
		return []byte{}, nil
	}

	buf := make([]byte, n)
	nr, err := io.ReadFull(stream, buf)
	if err == nil ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return buf[:nr], nil
	}

	return nil, err
}

// hasExt reports whether filename ends with ext,
// ignoring case.
func hasExt(filename, ext string) bool {
	return ext != "" && strings.HasSuffix(strings.ToLower(filename), ext)
}

// MatchResult returns true if the format was matched either
// by name, stream, or both. Name refers to matching by file
// extension, and stream refers to reading the first few bytes
// of the stream (its header).
type MatchResult struct {
	ByName, ByStream bool
}

// Matched returns true if a match was made by either name or stream.
func (mr MatchResult) Matched() bool { return mr.ByName || mr.ByStream }

// ErrNoMatch is returned if there are no matching formats.
var ErrNoMatch = fmt.Errorf("no formats matched")

// Registered formats, in registration order. Order matters when
// more than one format matches by name.
var formats []Compression
