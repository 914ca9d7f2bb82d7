package response

import (
	"errors"
	"fmt"
	"io"

	"github.com/nhdewitt/fileserver-from-tcp/internal/headers"
)

const (
	protocol = "HTTP/1.0"
	crlf     = "\r\n"
)

type writerState int

const (
	StateWritingStatusLine writerState = iota
	StateWritingHeaders
	StateWritingBody
	StateDone
)

var errOutOfOrder = errors.New("writer state out-of-order")

// Writer enforces status line, then headers, then body. It counts every
// byte it passes to the underlying writer.
type Writer struct {
	writer  io.Writer
	state   writerState
	written int64
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		writer: w,
		state:  StateWritingStatusLine,
	}
}

func (w *Writer) Written() int64 {
	return w.written
}

func (w *Writer) WriteStatusLine(statusCode StatusCode) error {
	if w.state != StateWritingStatusLine {
		return errOutOfOrder
	}
	reason := statusCode.Reason()
	if reason == "" {
		return fmt.Errorf("unsupported status code: %d", statusCode)
	}

	n, err := io.WriteString(w.writer, fmt.Sprintf("%s %d %s%s", protocol, statusCode, reason, crlf))
	w.written += int64(n)
	if err != nil {
		return fmt.Errorf("error writing status line: %w", err)
	}

	w.state = StateWritingHeaders
	return nil
}

func (w *Writer) WriteHeaders(h *headers.Headers) error {
	if w.state != StateWritingHeaders {
		return errOutOfOrder
	}

	n, err := h.Write(w.writer)
	w.written += int64(n)
	if err != nil {
		return err
	}

	w.state = StateWritingBody
	return nil
}

func (w *Writer) WriteBody(p []byte) (int, error) {
	if w.state != StateWritingBody {
		return 0, errOutOfOrder
	}

	w.state = StateDone
	n, err := w.writer.Write(p)
	w.written += int64(n)
	return n, err
}
