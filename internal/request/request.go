package request

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	// BufferSize is the most a single request may occupy. Anything past it
	// is never read.
	BufferSize = 4096
	method     = "GET"
)

var (
	ErrMalformedRequest = errors.New("malformed request")

	requestPattern = regexp.MustCompile(`GET (\S+) HTTP(\S*)`)
)

type Request struct {
	RequestLine RequestLine
	// Path is the request target with %20 decoded, used literally as a
	// filesystem path.
	Path string
}

type RequestLine struct {
	HttpVersion   string
	RequestTarget string
	Method        string
}

// ReadRaw performs exactly one read of at most BufferSize bytes. Larger
// requests are truncated.
func ReadRaw(reader io.Reader) ([]byte, error) {
	buf := make([]byte, BufferSize)
	n, err := reader.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return nil, err
}

func RequestFromReader(reader io.Reader) (*Request, error) {
	raw, err := ReadRaw(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading request: %w", err)
	}
	return Parse(raw)
}

// Parse extracts the path from the first "GET <path> HTTP" occurrence in
// raw. Invalid UTF-8 is replaced before matching.
func Parse(raw []byte) (*Request, error) {
	text := strings.ToValidUTF8(string(raw), "\uFFFD")

	m := requestPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRequest, FirstLine(raw))
	}

	target := m[1]
	version := strings.TrimPrefix(m[2], "/")

	return &Request{
		RequestLine: RequestLine{
			Method:        method,
			RequestTarget: target,
			HttpVersion:   version,
		},
		Path: strings.ReplaceAll(target, "%20", " "),
	}, nil
}

// FirstLine returns the first line of raw without its line terminator.
func FirstLine(raw []byte) string {
	text := strings.ToValidUTF8(string(raw), "\uFFFD")
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimRight(line, "\r\x00")
}
