// Command zipline prints every line of one file stored in a zip
// archive, without extracting it.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/mlcohort/zipline"
)

// Environment variables that supply defaults for unset flags.
const (
	envArchive    = "ZIPLINE_ARCHIVE"
	envMember     = "ZIPLINE_MEMBER"
	envEncoding   = "ZIPLINE_ENCODING"
	envDecompress = "ZIPLINE_DECOMPRESS"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("zipline: ")

	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
}

type options struct {
	archive    string
	member     string
	encoding   string
	decompress bool
	quote      bool
	verbose    bool
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	r := zipline.Reader{
		TextEncoding: opts.encoding,
		Decompress:   opts.decompress,
	}
	lines, err := r.Open(opts.archive, opts.member)
	if err != nil {
		return err
	}
	defer lines.Close()

	out := bufio.NewWriter(stdout)
	var count int
	for lines.Next() {
		if opts.quote {
			_, err = fmt.Fprintf(out, "%q\n", lines.Bytes())
		} else {
			_, err = out.Write(lines.Bytes())
		}
		if err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		count++
	}
	// lines read before a failure are still printed
	if err := out.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := lines.Err(); err != nil {
		return err
	}

	if opts.verbose {
		log.Printf("[INFO] %s: %s: %d lines", opts.archive, opts.member, count)
	}
	return nil
}

// parseArgs resolves options from, in order of precedence: positional
// arguments, flags, the process environment, and the dotenv file.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options

	fset := flag.NewFlagSet("zipline", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() {
		fmt.Fprint(stderr, usage)
		fset.PrintDefaults()
	}
	envFile := fset.String("env", ".env", "Dotenv file with default settings (ignored if missing)")
	fset.StringVar(&opts.archive, "archive", "", "Path to the zip archive")
	fset.StringVar(&opts.member, "member", "", "Path of the file within the archive")
	fset.StringVar(&opts.encoding, "encoding", "", "Character set of non-UTF-8 file names in the archive (e.g. Shift_JIS)")
	fset.BoolVar(&opts.decompress, "decompress", false, "Decompress the member if it is itself compressed (.gz, .zst, ...)")
	fset.BoolVar(&opts.quote, "quote", false, "Print each line as a quoted string")
	fset.BoolVar(&opts.verbose, "v", false, "Log a summary when done")
	if err := fset.Parse(args); err != nil {
		return opts, err
	}

	set := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { set[f.Name] = true })

	defaults, err := godotenv.Read(*envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return opts, fmt.Errorf("reading %s: %w", *envFile, err)
	}
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return defaults[key]
	}

	if !set["archive"] {
		opts.archive = lookup(envArchive)
	}
	if !set["member"] {
		opts.member = lookup(envMember)
	}
	if !set["encoding"] {
		opts.encoding = lookup(envEncoding)
	}
	if v := lookup(envDecompress); !set["decompress"] && v != "" {
		opts.decompress, err = strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", envDecompress, err)
		}
	}

	switch fset.NArg() {
	case 0:
	case 1:
		opts.archive = fset.Arg(0)
	case 2:
		opts.archive, opts.member = fset.Arg(0), fset.Arg(1)
	default:
		fset.Usage()
		return opts, fmt.Errorf("too many arguments")
	}

	if opts.archive == "" || opts.member == "" {
		fset.Usage()
		return opts, fmt.Errorf("both an archive and a member are required")
	}
	return opts, nil
}

const usage = `Usage: zipline [flags] [archive [member]]
  Print every line of the file named member inside the
  zip archive, as raw bytes, without extracting it.

  DEFAULTS FROM THE ENVIRONMENT
    Unset flags are read from the environment, then
    from the dotenv file given by -env:
      ZIPLINE_ARCHIVE
      ZIPLINE_MEMBER
      ZIPLINE_ENCODING
      ZIPLINE_DECOMPRESS

  FLAG REFERENCE

`
