package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/commentguard/commentguard/internal/observability/logging"
)

// MaxLineSize bounds one NDJSON request line
const MaxLineSize = 1 << 20

var ErrLineTooLong = errors.New("NDJSON line exceeds maximum size")

// lineReader reads newline-delimited records without buffering more than
// maxSize bytes of any one line. An oversized line is drained and reported
// as ErrLineTooLong; the next call continues with the following line.
type lineReader struct {
	r       *bufio.Reader
	maxSize int
	buf     []byte
}

func newLineReader(r io.Reader, maxSize int) *lineReader {
	return &lineReader{
		r:       bufio.NewReaderSize(r, 64*1024),
		maxSize: maxSize,
		buf:     make([]byte, 0, 4096),
	}
}

// next returns a copy of the next line without its terminator
func (l *lineReader) next() ([]byte, error) {
	l.buf = l.buf[:0]

	for {
		if len(l.buf) > l.maxSize {
			if err := l.skipLine(); err != nil && err != io.EOF {
				return nil, err
			}
			return nil, ErrLineTooLong
		}

		b, err := l.r.ReadByte()
		if err != nil {
			if err == io.EOF && len(l.buf) > 0 {
				return l.line(), nil
			}
			return nil, err
		}
		if b == '\n' {
			return l.line(), nil
		}
		l.buf = append(l.buf, b)
	}
}

func (l *lineReader) skipLine() error {
	for {
		b, err := l.r.ReadByte()
		if err != nil {
			return err
		}
		if b == '\n' {
			return nil
		}
	}
}

func (l *lineReader) line() []byte {
	n := len(l.buf)
	if n > 0 && l.buf[n-1] == '\r' {
		n--
	}
	out := make([]byte, n)
	copy(out, l.buf[:n])
	return out
}

type readResult struct {
	line []byte
	err  error
}

// ServeNDJSON reads one Request per line from r and writes one Response per
// line to w, in input order. Blank lines are skipped. Oversized or
// unparsable lines get an error response and the stream continues. Returns
// nil at EOF and ctx.Err() on cancellation.
func (p *Processor) ServeNDJSON(ctx context.Context, r io.Reader, w io.Writer) error {
	log := logging.From(ctx)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	lines := make(chan readResult)
	done := make(chan struct{})
	defer close(done)

	// reads block, so they run apart from the cancellable loop
	go func() {
		defer close(lines)
		lr := newLineReader(r, MaxLineSize)
		for {
			line, err := lr.next()
			select {
			case lines <- readResult{line: line, err: err}:
			case <-done:
				return
			}
			if err != nil && err != ErrLineTooLong {
				return
			}
		}
	}()

	lineNo := 0
	for {
		var res readResult
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok = <-lines:
			if !ok {
				return nil
			}
		}
		lineNo++

		var resp Response
		switch {
		case res.err == ErrLineTooLong:
			log.Warn("pipeline", "request line too long", "line", lineNo)
			resp = invalidRequest(nil, fmt.Sprintf("line exceeds %d bytes", MaxLineSize))
		case res.err == io.EOF:
			return nil
		case res.err != nil:
			return fmt.Errorf("failed to read request: %w", res.err)
		case len(bytes.TrimSpace(res.line)) == 0:
			continue
		default:
			var req Request
			if err := json.Unmarshal(res.line, &req); err != nil {
				log.Warn("pipeline", "unparsable request", "line", lineNo, "error", err.Error())
				resp = parseError(err.Error())
				break
			}
			resp = p.Process(ctx, req)
		}

		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}
}
