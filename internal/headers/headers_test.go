package headers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersParse(t *testing.T) {
	// Test: Valid single header
	headers := NewHeaders()
	data := []byte("Host: localhost:42069\r\n\r\n")
	n, done, err := headers.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "localhost:42069", headers.Get("host"))
	assert.Equal(t, 23, n)
	assert.False(t, done)
	n, done, err = headers.Parse(data[n:])
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, done)

	// Test: Invalid spacing header
	headers = NewHeaders()
	data = []byte("           Host : localhost:42069             \r\n\r\n")
	n, done, err = headers.Parse(data)
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, done)

	// Test: Valid 3 headers
	headers = NewHeaders()
	data = []byte("Host: example.com\r\nUser-Agent: test-agent/1.0\r\nAccept: */*\r\n\r\n")
	for _, want := range []int{19, 28, 13} {
		n, done, err = headers.Parse(data)
		require.NoError(t, err)
		assert.Equal(t, want, n)
		assert.False(t, done)
		data = data[n:]
	}
	n, done, err = headers.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, done)
	assert.Equal(t, "example.com", headers.Get("Host"))
	assert.Equal(t, "test-agent/1.0", headers.Get("user-agent"))
	assert.Equal(t, "*/*", headers.Get("accept"))
	assert.Equal(t, []string{"host", "user-agent", "accept"}, headers.Keys())

	// Partial line (no CRLF)
	headers = NewHeaders()
	n, done, err = headers.Parse([]byte("Host: loca"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, done)

	// Invalid no colon
	headers = NewHeaders()
	_, _, err = headers.Parse([]byte("Host localhost:42069\r\n"))
	require.Error(t, err)

	// Invalid character in header key
	headers = NewHeaders()
	n, _, err = headers.Parse([]byte("H©st: localhost:42069\r\n\r\n"))
	require.Error(t, err)
	assert.Equal(t, 0, n)

	// Multiple values for one header key
	headers = NewHeaders()
	data = []byte("Set-Person: lane-loves-go\r\nSet-Person: prime-loves-zig\r\nSet-Person: tj-loves-ocaml\r\n\r\n")
	for range 4 {
		n, done, err = headers.Parse(data)
		data = data[n:]
	}
	require.NoError(t, err)
	assert.Equal(t, "lane-loves-go, prime-loves-zig, tj-loves-ocaml", headers.Get("set-person"))
	assert.True(t, done)
	assert.Equal(t, 1, headers.Len())
}

func TestHeadersSetNewAndDel(t *testing.T) {
	h := NewHeaders()
	h.SetNew("Server", "a")
	h.SetNew("Content-Type", "text/plain")
	h.SetNew("server", "b")
	assert.Equal(t, "b", h.Get("SERVER"))
	assert.Equal(t, []string{"server", "content-type"}, h.Keys())

	h.Del("server")
	h.Del("missing")
	assert.Equal(t, []string{"content-type"}, h.Keys())
	assert.Equal(t, "", h.Get("server"))
}

func TestHeadersWrite(t *testing.T) {
	h := NewHeaders()
	h.SetNew("server", "fileserver-from-tcp/0.1")
	h.SetNew("content-type", "text/html")
	h.SetNew("content-length", "2")

	var buf bytes.Buffer
	n, err := h.Write(&buf)
	require.NoError(t, err)
	want := "Server: fileserver-from-tcp/0.1\r\nContent-Type: text/html\r\nContent-Length: 2\r\n\r\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, len(want), n)
}
