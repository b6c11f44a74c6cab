package zipline

import (
	"errors"
	"fmt"
)

// Error kinds. Every error from opening an archive or reading a
// member wraps exactly one of these, so callers can branch with
// errors.Is; the underlying cause (if any) is wrapped too.
var (
	// ErrArchiveNotFound means the archive path does not exist,
	// is a directory, or is not a valid zip file.
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrMemberNotFound means the archive has no regular file
	// entry by the requested name.
	ErrMemberNotFound = errors.New("member not found")

	// ErrIO means reading or decompressing the member failed.
	ErrIO = errors.New("i/o error")
)

// ErrStopLines can be returned by a LineHandler to end ForEachLine
// early without an error.
var ErrStopLines = fmt.Errorf("lines stopped")

// IsArchiveNotFound returns true if err is, or wraps, ErrArchiveNotFound.
func IsArchiveNotFound(err error) bool { return errors.Is(err, ErrArchiveNotFound) }

// IsMemberNotFound returns true if err is, or wraps, ErrMemberNotFound.
func IsMemberNotFound(err error) bool { return errors.Is(err, ErrMemberNotFound) }

// IsIOError returns true if err is, or wraps, ErrIO.
func IsIOError(err error) bool { return errors.Is(err, ErrIO) }

func archiveNotFound(archivePath string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", archivePath, ErrArchiveNotFound)
	}
	return fmt.Errorf("%s: %w: %w", archivePath, ErrArchiveNotFound, cause)
}

func memberNotFound(archivePath, member string) error {
	return fmt.Errorf("%s: %s: %w", archivePath, member, ErrMemberNotFound)
}

func ioError(archivePath, member string, cause error) error {
	if member == "" {
		return fmt.Errorf("%s: %w: %w", archivePath, ErrIO, cause)
	}
	return fmt.Errorf("%s: %s: %w: %w", archivePath, member, ErrIO, cause)
}
