// internal/output/writer.go
package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Writer is the single sink for operator-facing scan output.
// Console always; file optional, opened in append mode.
// Writes go straight through in call order: no buffering.
type Writer struct {
	mu      sync.Mutex
	console io.Writer
	file    io.WriteCloser
	path    string

	// pending is true while an unterminated progress line sits on the console.
	pending bool
}

// New wraps console only.
func New(console io.Writer) *Writer {
	return &Writer{console: console}
}

// Open wraps console and appends to path (created if missing).
// An empty path yields a console-only writer.
func Open(console io.Writer, path string) (*Writer, error) {
	w := New(console)
	if path == "" {
		return w, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("output: open %s: %w", path, err)
	}
	w.file = f
	w.path = path
	return w, nil
}

// Path is the output file path, empty when console only.
func (w *Writer) Path() string { return w.path }

// HasFile reports whether a file sink is attached.
func (w *Writer) HasFile() bool { return w.file != nil }

// Line writes s plus newline to console and file.
func (w *Writer) Line(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.consoleLocked(s + "\n"); err != nil {
		return err
	}
	return w.fileLocked(s + "\n")
}

// Linef is Line with formatting.
func (w *Writer) Linef(format string, args ...any) error {
	return w.Line(fmt.Sprintf(format, args...))
}

// Console writes s plus newline to the console only.
func (w *Writer) Console(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.consoleLocked(s + "\n")
}

// File writes s verbatim to the file only. No-op without a file.
func (w *Writer) File(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fileLocked(s)
}

// Progress rewrites the current console line in place.
// When toFile is set the line is also appended to the file.
func (w *Writer) Progress(s string, toFile bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := io.WriteString(w.console, "\r"+s); err != nil {
		return err
	}
	w.pending = true

	if toFile {
		return w.fileLocked(s + "\n")
	}
	return nil
}

// Close terminates any pending progress line and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		_, _ = io.WriteString(w.console, "\n")
		w.pending = false
	}
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *Writer) consoleLocked(s string) error {
	if w.pending {
		s = "\n" + s
		w.pending = false
	}
	_, err := io.WriteString(w.console, s)
	return err
}

func (w *Writer) fileLocked(s string) error {
	if w.file == nil {
		return nil
	}
	_, err := io.WriteString(w.file, s)
	return err
}
