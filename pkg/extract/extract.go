// Package extract turns line-oriented text into rows using a pattern with
// named capture groups.
package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/shunichi-ikebuchi/bi-import/pkg/rows"
)

var (
	// ErrInvalidPattern is returned when the line pattern does not compile.
	ErrInvalidPattern = errors.New("error in regular expression")

	// ErrSourceUnavailable is returned when the source cannot be opened.
	ErrSourceUnavailable = errors.New("source cannot be opened")
)

// Result is the outcome code of an extraction.
type Result int

const (
	ResultOK Result = iota
	ResultOpenFailed
	ResultErrorInRegexp
)

func (r Result) String() string {
	switch r {
	case ResultOpenFailed:
		return "OPEN_FAILED"
	case ResultErrorInRegexp:
		return "ERROR_IN_REGEXP"
	}
	return "OK"
}

// ResultOf maps an extraction error to its result code.
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrInvalidPattern):
		return ResultErrorInRegexp
	default:
		return ResultOpenFailed
	}
}

// Stats accumulates the statistics of one import run.
type Stats struct {
	Imported int
	Ignored  int
	// IgnoredLines holds the lines that did not match, in order.
	IgnoredLines []string

	Fixed   int
	Deleted int
	// Info holds the diagnostic messages of the validate and reconcile passes.
	Info []string
}

// IgnoredText returns the ignored lines, each followed by a newline.
func (s *Stats) IgnoredText() string {
	var sb strings.Builder
	for _, l := range s.IgnoredLines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Config configures an Extractor.
type Config struct {
	// Pattern is the line pattern. Named groups matching row field names
	// fill the corresponding fields.
	Pattern string
	// MaxRows stops reading once imported plus ignored lines reach it; 0 reads everything.
	MaxRows int
	// Encoding names the source character set (default utf-8).
	Encoding string
	Logger   *slog.Logger
}

// Extractor reads text sources into a row table.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a new Extractor.
func New(cfg Config) *Extractor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// ReadFile extracts rows from the file at path. The pattern is compiled
// before the file is opened, so a bad pattern never touches the source.
func (e *Extractor) ReadFile(path string, table *rows.Table, stats *Stats) error {
	re, err := e.compile()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	return e.read(re, f, table, stats)
}

// Read extracts rows from r.
func (e *Extractor) Read(r io.Reader, table *rows.Table, stats *Stats) error {
	re, err := e.compile()
	if err != nil {
		return err
	}
	return e.read(re, r, table, stats)
}

func (e *Extractor) compile() (*regexp.Regexp, error) {
	re, err := regexp.Compile(e.cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %v", ErrInvalidPattern, e.cfg.Pattern, err)
	}
	return re, nil
}

func (e *Extractor) read(re *regexp.Regexp, r io.Reader, table *rows.Table, stats *Stats) error {
	if stats == nil {
		stats = &Stats{}
	}

	decoder, err := decoderFor(e.cfg.Encoding)
	if err != nil {
		return err
	}

	groups := fieldGroups(re)
	br := bufio.NewReaderSize(r, 4096)
	lineNo := 0

	for e.cfg.MaxRows == 0 || stats.Imported+stats.Ignored < e.cfg.MaxRows {
		raw, readErr := br.ReadString('\n')
		if raw == "" && readErr != nil {
			if readErr == io.EOF {
				break
			}
			return fmt.Errorf("failed to read line %d: %w", lineNo+1, readErr)
		}
		lineNo++

		raw = strings.TrimSuffix(raw, "\n")
		raw = strings.TrimSuffix(raw, "\r")
		line := decode(decoder, raw)

		match := re.FindStringSubmatchIndex(line)
		if match == nil {
			stats.Ignored++
			stats.IgnoredLines = append(stats.IgnoredLines, line)
			e.logger.Debug("Line ignored", "line", lineNo)
		} else {
			stats.Imported++
			table.Append(buildRow(line, match, groups, lineNo))
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("failed to read line %d: %w", lineNo+1, readErr)
		}
	}

	e.logger.Debug("Extraction finished", "imported", stats.Imported, "ignored", stats.Ignored)
	return nil
}

// fieldGroups maps each row field to the capture groups carrying its name,
// leftmost first. Groups with other names are ignored.
func fieldGroups(re *regexp.Regexp) map[rows.Field][]int {
	groups := make(map[rows.Field][]int)
	for i, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		if f, ok := rows.FieldByName(name); ok {
			groups[f] = append(groups[f], i)
		}
	}
	return groups
}

func buildRow(line string, match []int, groups map[rows.Field][]int, lineNo int) *rows.Row {
	row := &rows.Row{Line: lineNo}
	for f, idxs := range groups {
		for _, idx := range idxs {
			start, end := match[2*idx], match[2*idx+1]
			if start < 0 {
				continue
			}
			if v := strings.TrimSpace(line[start:end]); v != "" {
				row.Set(f, v)
			}
			break
		}
	}
	return row
}

func decoderFor(name string) (*encoding.Decoder, error) {
	if name == "" {
		return unicode.UTF8.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown source encoding %q: %w", name, err)
	}
	return enc.NewDecoder(), nil
}

// decode converts a line to UTF-8, keeping the raw text if the decoder fails.
func decode(d *encoding.Decoder, s string) string {
	out, err := d.String(s)
	if err != nil {
		return s
	}
	return out
}
