// Package zipline streams the lines of a single file stored in a zip
// archive without extracting it. Lines are raw bytes; no character
// encoding is assumed for the content.
//
// The simplest use:
//
//	lines, err := zipline.ReadMemberLines("dataset.zip", "train.tsv")
//	if err != nil {
//		return err
//	}
//	defer lines.Close()
//	for lines.Next() {
//		os.Stdout.Write(lines.Bytes())
//	}
//	return lines.Err()
package zipline

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/afero"
)

// Reader opens members of zip archives for line-by-line reading.
// The zero value reads from the OS file system with no extra
// decoding and is ready to use.
type Reader struct {
	// The file system the archive path is resolved on.
	// If nil, the OS file system is used.
	FS afero.Fs

	// IANA name of the character set used by entries whose names are
	// not marked as UTF-8 (common in archives made by older tools on
	// Windows), e.g. "Shift_JIS" or "IBM437". If empty or unknown,
	// names are compared as stored.
	TextEncoding string

	// If true, a member whose content is itself compressed (by one
	// of Codecs) is transparently decompressed. Members that match
	// no codec are read as they are.
	Decompress bool

	// The codecs tried when Decompress is set. If nil, the
	// registered formats are used.
	Codecs []Compression
}

// DefaultReader is the Reader used by ReadMemberLines.
var DefaultReader = Reader{}

// ReadMemberLines opens archivePath and returns the lines of the
// member stored in it as member. See Reader.Open.
func ReadMemberLines(archivePath, member string) (*Lines, error) {
	return DefaultReader.Open(archivePath, member)
}

// Open opens the zip archive at archivePath and returns a lazy
// sequence of the lines of its member named member, which is the
// path of the file relative to the archive root. Nothing is read
// from the member until Next is called.
//
// It fails with ErrArchiveNotFound if archivePath does not exist or
// is not a zip file, with ErrMemberNotFound if no regular file is
// stored under member, and with ErrIO for any other failure. On
// error nothing is left open.
func (r Reader) Open(archivePath, member string) (*Lines, error) {
	fsys := r.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	a, err := openArchive(fsys, archivePath)
	if err != nil {
		return nil, err
	}

	f, err := a.find(member, r.TextEncoding)
	if err != nil {
		a.Close()
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		a.Close()
		return nil, ioError(archivePath, member, err)
	}

	// close in reverse order of opening
	closers := []io.Closer{rc, a}
	var stream io.Reader = rc

	if r.Decompress {
		codecs := r.Codecs
		if codecs == nil {
			codecs = formats
		}
		s := newSniffer(rc)
		if s.empty() {
			// nothing to decompress; an empty member has no lines
			return newLines(archivePath, member, s.detach(), closers), nil
		}
		format, replay, err := identifySniffed(codecs, entryName(f, r.TextEncoding), s)
		stream = replay
		switch {
		case errors.Is(err, ErrNoMatch):
		case err != nil:
			rc.Close()
			a.Close()
			return nil, ioError(archivePath, member, err)
		default:
			dr, err := format.OpenReader(replay)
			if err != nil {
				rc.Close()
				a.Close()
				return nil, ioError(archivePath, member, err)
			}
			closers = append([]io.Closer{dr}, closers...)
			stream = dr
		}
	}

	return newLines(archivePath, member, stream, closers), nil
}

// ForEachLine calls handle with each line of the member, in order.
// Reading stops at the first error returned by handle, which is
// returned as-is unless it is ErrStopLines. Context cancellation is
// checked before each line.
func (r Reader) ForEachLine(ctx context.Context, archivePath, member string, handle LineHandler) error {
	lines, err := r.Open(archivePath, member)
	if err != nil {
		return err
	}
	defer lines.Close()

	for lines.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := handle(ctx, lines.Bytes()); err != nil {
			if errors.Is(err, ErrStopLines) {
				return nil
			}
			return err
		}
	}
	return lines.Err()
}
