package receipt

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/pretty"
)

// Writer for receipts
type Writer interface {
	Write(r Receipt) error
	Close() error
}

// Mode write strategy
type Mode string

const (
	// ModeOverwrite truncates the file and writes a single indented JSON object.
	ModeOverwrite Mode = "overwrite"
	// ModeAppend appends JSONL (one JSON object per line).
	ModeAppend Mode = "append"
)

// StdoutPath sends receipts to standard output instead of a file
const StdoutPath = "-"

type streamWriter struct {
	mu   sync.Mutex
	out  io.Writer
	c    io.Closer
	mode Mode
}

// NewWriter opens path for receipts. Unknown modes fall back to overwrite.
func NewWriter(path string, mode string) (Writer, error) {
	m := Mode(mode)
	if m != ModeOverwrite && m != ModeAppend {
		m = ModeOverwrite
	}

	if path == StdoutPath {
		return &streamWriter{out: os.Stdout, mode: m}, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for receipt: %w", err)
		}
	}

	flag := os.O_CREATE | os.O_TRUNC | os.O_WRONLY
	if m == ModeAppend {
		flag = os.O_CREATE | os.O_APPEND | os.O_WRONLY
	}

	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open receipt file: %w", err)
	}

	return &streamWriter{out: f, c: f, mode: m}, nil
}

// NewStreamWriter writes receipts to w; Close does not close w.
func NewStreamWriter(w io.Writer, mode Mode) Writer {
	if mode != ModeAppend {
		mode = ModeOverwrite
	}
	return &streamWriter{out: w, mode: mode}
}

func (w *streamWriter) Write(r Receipt) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	if w.mode == ModeAppend {
		data = append(data, '\n')
	} else {
		// pretty output already ends in a newline
		data = pretty.Pretty(data)
	}

	if _, err := w.out.Write(data); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}

func (w *streamWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.c == nil {
		return nil
	}
	err := w.c.Close()
	w.c = nil
	return err
}
