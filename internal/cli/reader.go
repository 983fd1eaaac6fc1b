package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// LineReader provides context-aware line reading that can be interrupted.
// The underlying read cannot be aborted, but a canceled context returns
// control to the caller immediately.
type LineReader struct {
	reader  *bufio.Reader
	pending chan readResult
}

type readResult struct {
	err   error
	value string
}

// NewLineReader creates a line reader over the given input.
func NewLineReader(reader io.Reader) *LineReader {
	if reader == nil {
		panic("reader cannot be nil")
	}
	return &LineReader{reader: bufio.NewReader(reader)}
}

// ReadLine reads a single trimmed line, respecting context cancellation.
// If a previous read was abandoned by cancellation, its eventual result is
// consumed first so input lines are never silently dropped.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if r.pending == nil {
		ch := make(chan readResult, 1)
		r.pending = ch
		go func() {
			value, err := r.reader.ReadString('\n')
			ch <- readResult{value: value, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-r.pending:
		r.pending = nil
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}
