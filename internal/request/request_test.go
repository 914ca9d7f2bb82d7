package request

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chunkReader struct {
	data            string
	numBytesPerRead int
	pos             int
}

// Read reads up to len(p) or numBytesPerRead bytes from the string per call
// its useful for simulating reading a variable number of bytes per chunk from a network connection
func (cr *chunkReader) Read(p []byte) (n int, err error) {
	if cr.pos >= len(cr.data) {
		return 0, io.EOF
	}
	endIndex := cr.pos + cr.numBytesPerRead
	if endIndex > len(cr.data) {
		endIndex = len(cr.data)
	}
	n = copy(p, cr.data[cr.pos:endIndex])
	cr.pos += n

	return n, nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestParseValid(t *testing.T) {
	cases := []struct {
		data              string
		wantPath, wantVer string
		wantTarget        string
	}{
		{"GET / HTTP", "/", "", "/"},
		{"GET /coffee HTTP/1.1\r\nHost: x\r\n\r\n", "/coffee", "1.1", "/coffee"},
		{"GET /x HTTP/1.1", "/x", "1.1", "/x"},
		{"GET /a%20b HTTP", "/a b", "", "/a%20b"},
		{"GET /a%20b%20c.txt HTTP/1.0\r\n", "/a b c.txt", "1.0", "/a%20b%20c.txt"},
		{"GET /a%2Fb HTTP", "/a%2Fb", "", "/a%2Fb"},
		{"GET /site/index.html HTTP\r\n", "/site/index.html", "", "/site/index.html"},
		{"junk before GET /late HTTP/1.0", "/late", "1.0", "/late"},
		{"GET relative/path.txt HTTP", "relative/path.txt", "", "relative/path.txt"},
	}
	for _, c := range cases {
		r, err := Parse([]byte(c.data))
		require.NoError(t, err, c.data)
		require.NotNil(t, r)
		assert.Equal(t, "GET", r.RequestLine.Method)
		assert.Equal(t, c.wantTarget, r.RequestLine.RequestTarget)
		assert.Equal(t, c.wantVer, r.RequestLine.HttpVersion)
		assert.Equal(t, c.wantPath, r.Path)
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, p := range []string{"/", "/a", "/a/b/c", "src/main.rs", "/weird-%41-chars?q=1", "/ünï"} {
		r, err := Parse([]byte("GET " + p + " HTTP"))
		require.NoError(t, err, p)
		assert.Equal(t, p, r.Path)
	}
}

func TestParseRejects(t *testing.T) {
	for _, bad := range []string{
		"GET HTTP",
		"GETHTTP",
		"PUT /x HTTP",
		"GET /x ",
		"GET /x HTP",
		"a b c",
		"",
		"GET  /x HTTP",
		"GET /x  HTTP",
		"GET /a b HTTP",
		"get /x HTTP",
		"/coffee GET HTTP/1.1\r\n",
	} {
		r, err := Parse([]byte(bad))
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, ErrMalformedRequest))
		assert.Nil(t, r)
	}
}

func TestParseInvalidUTF8(t *testing.T) {
	raw := append([]byte("GET /caf"), 0xff, 0xfe)
	raw = append(raw, []byte(" HTTP/1.0")...)
	r, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/caf\uFFFD", r.Path)
}

func TestRequestFromReader(t *testing.T) {
	data := "GET /coffee HTTP/1.1\r\nHost: x\r\n\r\n"
	reader := &chunkReader{data: data, numBytesPerRead: len(data)}
	r, err := RequestFromReader(reader)
	require.NoError(t, err)
	assert.Equal(t, "/coffee", r.Path)

	// A single read only sees the first chunk.
	reader = &chunkReader{data: data, numBytesPerRead: 3}
	_, err = RequestFromReader(reader)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRequest))

	// Early EOF
	reader = &chunkReader{data: "", numBytesPerRead: 1}
	_, err = RequestFromReader(reader)
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	_, err = RequestFromReader(failingReader{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedRequest))
}

func TestReadRawTruncates(t *testing.T) {
	data := "GET /" + strings.Repeat("a", BufferSize) + " HTTP"
	raw, err := ReadRaw(strings.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, raw, BufferSize)

	_, err = Parse(raw)
	assert.True(t, errors.Is(err, ErrMalformedRequest))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "GET / HTTP/1.0", FirstLine([]byte("GET / HTTP/1.0\r\nHost: x\r\n")))
	assert.Equal(t, "a b c", FirstLine([]byte("a b c")))
	assert.Equal(t, "", FirstLine(nil))
}
