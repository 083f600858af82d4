// Package loader reads tmpfiles.d configuration files into actions.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/tmpfiles/internal/action"
	"github.com/bamsammich/tmpfiles/internal/parser"
)

// maxLineLength bounds a single configuration line.
const maxLineLength = 1 << 20

// Entry is an action together with where it was read from.
type Entry struct {
	File   string
	Line   int
	Action action.Action
}

// LineError is a line that failed to parse. Loading continues with the
// next line.
type LineError struct {
	File string
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Duplicate is a line ignored because an earlier line already configured
// the same path with the same item type.
type Duplicate struct {
	Entry
	First Entry
}

// Result collects everything read from one or more files, in file order
// and then line order.
type Result struct {
	Entries    []Entry
	Errors     []*LineError
	Duplicates []Duplicate
}

// Loader reads configuration files from a filesystem.
type Loader struct {
	fs          afero.Fs
	parser      parser.Parser
	concurrency int
}

// Option configures a Loader.
type Option func(*Loader)

// WithParser sets the line parser.
func WithParser(p parser.Parser) Option {
	return func(l *Loader) { l.parser = p }
}

// WithConcurrency limits how many files are read at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) { l.concurrency = n }
}

// New returns a Loader reading from fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, opts ...Option) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	l := &Loader{fs: fs, concurrency: runtime.NumCPU()}
	for _, o := range opts {
		o(l)
	}
	if l.concurrency <= 0 {
		l.concurrency = 1
	}
	return l
}

// LoadFile reads a single file. Parse failures are reported in the result;
// the error is only set when the file cannot be read.
func (l *Loader) LoadFile(path string) (Result, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	res, err := Parse(f, path, l.parser)
	if err != nil {
		return Result{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	slog.Debug("loaded config file",
		"path", path,
		"entries", len(res.Entries),
		"errors", len(res.Errors),
	)
	return res, nil
}

// Load reads paths concurrently and merges the results in the order the
// paths were given. Duplicates are resolved across all files, first wins.
func (l *Loader) Load(ctx context.Context, paths []string) (Result, error) {
	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := l.LoadFile(p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var merged Result
	for _, r := range results {
		merged.Entries = append(merged.Entries, r.Entries...)
		merged.Errors = append(merged.Errors, r.Errors...)
		merged.Duplicates = append(merged.Duplicates, r.Duplicates...)
	}
	var crossFile []Duplicate
	merged.Entries, crossFile = dedupe(merged.Entries)
	merged.Duplicates = append(merged.Duplicates, crossFile...)
	return merged, nil
}

// ErrLineTooLong is recorded for a line longer than maxLineLength.
var ErrLineTooLong = errors.New("line too long")

// Parse reads lines from r. Blank lines and lines starting with '#' are
// skipped. name is only used to label entries and errors.
func Parse(r io.Reader, name string, p parser.Parser) (Result, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var res Result
	lineNum := 0
	for {
		line, n, err := readLine(br)
		if n > 0 {
			lineNum++
			switch {
			case n > maxLineLength:
				res.Errors = append(res.Errors, &LineError{
					File: name,
					Line: lineNum,
					Err:  fmt.Errorf("%w: exceeds %d bytes", ErrLineTooLong, maxLineLength),
				})
			case errors.Is(err, io.EOF):
				// Last line of a CRLF file without a final newline.
				parseOne(&res, name, lineNum, bytes.TrimSuffix(line, []byte{'\r'}), p)
			default:
				parseOne(&res, name, lineNum, line, p)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, err
		}
	}
	res.Entries, res.Duplicates = dedupe(res.Entries)
	return res, nil
}

// readLine returns the next line including its terminator and its length
// in bytes. A line longer than maxLineLength is consumed but not kept.
func readLine(br *bufio.Reader) ([]byte, int, error) {
	var line []byte
	n := 0
	for {
		chunk, err := br.ReadSlice('\n')
		n += len(chunk)
		if n <= maxLineLength {
			line = append(line, chunk...)
		} else {
			line = nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return line, n, err
		}
	}
}

func parseOne(res *Result, name string, lineNum int, line []byte, p parser.Parser) {
	trimmed := bytes.TrimLeft(line, " \t")
	content := bytes.TrimSpace(trimmed)
	if len(content) == 0 || content[0] == '#' {
		return
	}

	a, err := p.Parse(trimmed)
	if err != nil {
		var perr *parser.Error
		if errors.As(err, &perr) {
			perr.Offset += len(line) - len(trimmed)
		}
		res.Errors = append(res.Errors, &LineError{File: name, Line: lineNum, Err: err})
		return
	}
	res.Entries = append(res.Entries, Entry{File: name, Line: lineNum, Action: a})
}

type dedupeKey struct {
	path string
	typ  action.ItemType
}

func dedupe(entries []Entry) ([]Entry, []Duplicate) {
	seen := make(map[dedupeKey]Entry, len(entries))
	var kept []Entry
	var dups []Duplicate
	for _, e := range entries {
		k := dedupeKey{path: e.Action.Path, typ: e.Action.Type}
		if first, ok := seen[k]; ok {
			dups = append(dups, Duplicate{Entry: e, First: first})
			continue
		}
		seen[k] = e
		kept = append(kept, e)
	}
	return kept, dups
}
