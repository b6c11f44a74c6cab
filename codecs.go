package zipline

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
	"github.com/sorairolake/lzip-go"
	fastxz "github.com/therootcompany/xz"
	"github.com/ulikunitz/xz"
)

func init() {
	RegisterFormat(Gz{})
	RegisterFormat(Zstd{})
	RegisterFormat(Bz2{})
	RegisterFormat(Xz{})
	RegisterFormat(Lz4{})
	RegisterFormat(Sz{})
	RegisterFormat(Lzip{})
	RegisterFormat(Zlib{})
	RegisterFormat(Brotli{})
}

// matchMagic matches by extension and, if magic is not empty,
// by comparing the start of the stream to it.
func matchMagic(filename string, stream io.Reader, ext string, magic []byte) (MatchResult, error) {
	mr := MatchResult{ByName: hasExt(filename, ext)}
	if len(magic) == 0 {
		return mr, nil
	}
	buf, err := readAtMost(stream, len(magic))
	if err != nil {
		return mr, err
	}
	mr.ByStream = bytes.Equal(buf, magic)
	return mr, nil
}

// Gz facilitates gzip compression.
type Gz struct {
	// Gzip compression level. If 0, DefaultCompression is assumed
	// rather than no compression.
	CompressionLevel int

	// DisableMultistream controls whether the reader supports
	// multistream files.
	DisableMultistream bool

	// Use a parallel gzip implementation. This is only effective
	// for large members (about 1 MB or greater).
	Multithreaded bool
}

func (Gz) Name() string { return ".gz" }

func (gz Gz) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, stream, gz.Name(), gzHeader)
}

func (gz Gz) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	level := gz.CompressionLevel
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if gz.Multithreaded {
		return pgzip.NewWriterLevel(w, level)
	}
	return gzip.NewWriterLevel(w, level)
}

func (gz Gz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	if gz.Multithreaded {
		gzR, err := pgzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		gzR.Multistream(!gz.DisableMultistream)
		return gzR, nil
	}
	gzR, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	gzR.Multistream(!gz.DisableMultistream)
	return gzR, nil
}

// Zstd facilitates Zstandard compression.
type Zstd struct {
	EncoderOptions []zstd.EOption
	DecoderOptions []zstd.DOption
}

func (Zstd) Name() string { return ".zst" }

func (zs Zstd) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, stream, zs.Name(), zstdHeader)
}

func (zs Zstd) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zs.EncoderOptions...)
}

func (zs Zstd) OpenReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r, zs.DecoderOptions...)
	if err != nil {
		return nil, err
	}
	return zr.IOReadCloser(), nil
}

// Bz2 facilitates bzip2 compression.
type Bz2 struct {
	CompressionLevel int
}

func (Bz2) Name() string { return ".bz2" }

func (bz Bz2) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, stream, bz.Name(), bzip2Header)
}

func (bz Bz2) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bz.CompressionLevel})
}

func (Bz2) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, nil)
}

// Xz facilitates xz compression. Reads use a faster decoder
// than the one used for writing.
type Xz struct{}

func (Xz) Name() string { return ".xz" }

func (x Xz) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, stream, x.Name(), xzHeader)
}

func (Xz) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}

func (Xz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	xr, err := fastxz.NewReader(r, 0)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}

// Lz4 facilitates LZ4 compression.
type Lz4 struct {
	CompressionLevel int
}

func (Lz4) Name() string { return ".lz4" }

func (lz Lz4) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, stream, lz.Name(), lz4Header)
}

func (lz Lz4) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	lzw := lz4.NewWriter(w)
	if err := lzw.Apply(lz4.CompressionLevelOption(lz4.CompressionLevel(lz.CompressionLevel))); err != nil {
		return nil, err
	}
	return lzw, nil
}

func (Lz4) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

// Sz facilitates Snappy compression. It uses S2 for reading
// and writing, and writes Snappy-compatible streams unless
// SnappyIncompatible is set.
type Sz struct {
	Concurrency        int
	SnappyIncompatible bool
	IgnoreCRC          bool
}

func (Sz) Name() string { return ".sz" }

func (sz Sz) Match(filename string, stream io.Reader) (MatchResult, error) {
	mr, err := matchMagic(filename, stream, sz.Name(), snappyHeader)
	mr.ByName = mr.ByName || hasExt(filename, ".s2")
	return mr, err
}

func (sz Sz) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	var opts []s2.WriterOption
	if sz.Concurrency != 0 {
		opts = append(opts, s2.WriterConcurrency(sz.Concurrency))
	}
	if !sz.SnappyIncompatible {
		opts = append(opts, s2.WriterSnappyCompat())
	}
	return s2.NewWriter(w, opts...), nil
}

func (sz Sz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	var opts []s2.ReaderOption
	if sz.IgnoreCRC {
		opts = append(opts, s2.ReaderIgnoreCRC())
	}
	return io.NopCloser(s2.NewReader(r, opts...)), nil
}

// Lzip facilitates lzip compression.
type Lzip struct{}

func (Lzip) Name() string { return ".lz" }

func (lz Lzip) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, stream, lz.Name(), lzipHeader)
}

func (Lzip) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return lzip.NewWriter(w), nil
}

func (Lzip) OpenReader(r io.Reader) (io.ReadCloser, error) {
	lzr, err := lzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(lzr), nil
}

// Zlib facilitates zlib compression.
type Zlib struct {
	CompressionLevel int
}

func (Zlib) Name() string { return ".zz" }

// Match checks the two-byte zlib header rather than a single magic
// byte, since plain text beginning with 'x' would otherwise match.
func (zz Zlib) Match(filename string, stream io.Reader) (MatchResult, error) {
	mr := MatchResult{ByName: hasExt(filename, zz.Name())}
	buf, err := readAtMost(stream, 2)
	if err != nil {
		return mr, err
	}
	if len(buf) == 2 {
		cmf, flg := uint16(buf[0]), uint16(buf[1])
		mr.ByStream = cmf&0x0f == 8 && cmf>>4 <= 7 && (cmf<<8|flg)%31 == 0
	}
	return mr, nil
}

func (zz Zlib) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	level := zz.CompressionLevel
	if level == 0 {
		level = zlib.DefaultCompression
	}
	return zlib.NewWriterLevel(w, level)
}

func (Zlib) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}

// Brotli facilitates brotli compression. Brotli streams have no
// header, so members are only recognized by name.
type Brotli struct {
	Quality int
}

func (Brotli) Name() string { return ".br" }

func (br Brotli) Match(filename string, _ io.Reader) (MatchResult, error) {
	return matchMagic(filename, nil, br.Name(), nil)
}

func (br Brotli) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return brotli.NewWriterLevel(w, br.Quality), nil
}

func (Brotli) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}

// magic numbers at the beginning of each format's streams
var (
	gzHeader     = []byte{0x1f, 0x8b}
	zstdHeader   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	bzip2Header  = []byte("BZh")
	xzHeader     = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
	lz4Header    = []byte{0x04, 0x22, 0x4d, 0x18}
	snappyHeader = []byte{0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50, 0x70, 0x59}
	lzipHeader   = []byte("LZIP")
)

// Interface guards
var (
	_ Compression = Gz{}
	_ Compression = Zstd{}
	_ Compression = Bz2{}
	_ Compression = Xz{}
	_ Compression = Lz4{}
	_ Compression = Sz{}
	_ Compression = Lzip{}
	_ Compression = Zlib{}
	_ Compression = Brotli{}
)
