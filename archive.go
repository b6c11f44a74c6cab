package zipline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"syscall"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Additional compression methods for zip entries.
// See https://pkware.cachefly.net/webdocs/casestudies/APPNOTE.TXT (section 4.4.5)
//
// TODO: LZMA (method 14) needs a reader for the zip flavor of the LZMA
// header, which ulikunitz/xz does not expose.
const (
	ZipMethodBzip2 = 12
	ZipMethodZstd  = 93
	ZipMethodXz    = 95
)

// archive is an opened, read-only zip file.
type archive struct {
	path string
	file afero.File
	zr   *zip.Reader
}

// openArchive opens the zip file at archivePath on fsys.
func openArchive(fsys afero.Fs, archivePath string) (*archive, error) {
	file, err := fsys.Open(archivePath)
	if err != nil {
		// a path through a regular file ("file/a.zip") names nothing
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, archiveNotFound(archivePath, err)
		}
		return nil, ioError(archivePath, "", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, ioError(archivePath, "", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, archiveNotFound(archivePath, fmt.Errorf("is a directory"))
	}

	zr, err := zip.NewReader(file, info.Size())
	if err != nil {
		file.Close()
		if errors.Is(err, zip.ErrFormat) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, archiveNotFound(archivePath, err)
		}
		return nil, ioError(archivePath, "", err)
	}
	registerZipMethods(zr)

	return &archive{path: archivePath, file: file, zr: zr}, nil
}

// registerZipMethods teaches zr to read entries compressed with
// methods beyond store and deflate. It is done per reader so it
// never collides with package-level registrations.
func registerZipMethods(zr *zip.Reader) {
	zr.RegisterDecompressor(ZipMethodBzip2, func(r io.Reader) io.ReadCloser {
		bz2r, err := bzip2.NewReader(r, nil)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return bz2r
	})
	zr.RegisterDecompressor(ZipMethodZstd, func(r io.Reader) io.ReadCloser {
		zsr, err := zstd.NewReader(r)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return zsr.IOReadCloser()
	})
	zr.RegisterDecompressor(ZipMethodXz, func(r io.Reader) io.ReadCloser {
		xr, err := xz.NewReader(r)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return io.NopCloser(xr)
	})
}

// find returns the regular file entry named member. The member is
// looked up as given first, then in normalized form. An entry whose
// name is not marked as UTF-8 matches by its stored bytes and, if
// textEncoding is given, by its decoded name as well. When several
// entries share a name, the last one in the central directory wins.
func (a *archive) find(member, textEncoding string) (*zip.File, error) {
	want := []string{member}
	if norm := normalizeMemberPath(member); norm != member {
		want = append(want, norm)
	}

	for _, name := range want {
		for i := len(a.zr.File) - 1; i >= 0; i-- {
			f := a.zr.File[i]
			if f.Name != name && entryName(f, textEncoding) != name {
				continue
			}
			if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
				continue
			}
			return f, nil
		}
	}
	return nil, memberNotFound(a.path, member)
}

// entryName returns the name of f, decoded from textEncoding
// if the archive marks it as not being UTF-8.
func entryName(f *zip.File, textEncoding string) string {
	if !f.NonUTF8 || textEncoding == "" {
		return f.Name
	}
	decoded, err := decodeText(f.Name, textEncoding)
	if err != nil {
		return f.Name
	}
	return decoded
}

func decodeText(input, charset string) (string, error) {
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return "", fmt.Errorf("unsupported text encoding: %s", charset)
	}
	output, _, err := transform.String(enc.NewDecoder(), input)
	if err != nil {
		return "", fmt.Errorf("decoding text with %s: %w", charset, err)
	}
	return output, nil
}

// normalizeMemberPath converts a caller-supplied member path into
// the form zip files store names in: forward slashes, cleaned, and
// relative to the archive root.
func normalizeMemberPath(member string) string {
	p := path.Clean(strings.ReplaceAll(member, `\`, "/"))
	p = strings.TrimLeft(p, "/")
	if p == "." {
		return ""
	}
	return p
}

func (a *archive) Close() error {
	return a.file.Close()
}
