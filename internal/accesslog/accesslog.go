// Package accesslog records one line per completed exchange.
package accesslog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xplshn/tracerr2"
)

type Record struct {
	Time        time.Time
	RequestLine string
	Status      int
	Size        int64
}

func (r Record) String() string {
	return fmt.Sprintf("%s %q %d %d (%s)",
		r.Time.Format(time.RFC3339), r.RequestLine, r.Status, r.Size, humanize.Bytes(uint64(r.Size)))
}

// Logger is safe for concurrent use; writes are serialized.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

func New(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Open appends to the file at path, or writes to stdout when path is "-".
func Open(path string) (*Logger, error) {
	if path == "-" {
		return New(os.Stdout), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, tracerr.Wrapf(err, "failed to open access log %s", path)
	}
	return &Logger{w: f, closer: f}, nil
}

func (l *Logger) Log(r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := io.WriteString(l.w, r.String()+"\n")
	return err
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}
