package headers

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	crlf                = "\r\n"
	validFieldNameChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!#$%&'*+-.^_`|~"
)

// Headers keeps field names lowercased and remembers insertion order so a
// response block is written deterministically.
type Headers struct {
	keys   []string
	values map[string]string
}

func NewHeaders() *Headers {
	return &Headers{values: map[string]string{}}
}

// Parse consumes one header line from data. done is set when the blank line
// ending the block is reached.
func (h *Headers) Parse(data []byte) (n int, done bool, err error) {
	idx := bytes.Index(data, []byte(crlf))
	if idx == -1 {
		return 0, false, nil
	}
	if idx == 0 {
		n = idx + 2
		return n, true, nil
	}

	fields := data[:idx]
	colonIdx := bytes.IndexByte(fields, ':')
	if colonIdx == -1 {
		return 0, false, fmt.Errorf("malformed header line (no colon): %q", fields)
	}

	name := fields[:colonIdx]
	if len(name) == 0 || bytes.ContainsAny(name, " \t") {
		return 0, false, fmt.Errorf("malformed field-name: %q", fields)
	}

	key := string(name)
	for _, r := range key {
		if !strings.ContainsRune(validFieldNameChars, r) {
			return 0, false, fmt.Errorf("invalid character in field-name: %q", fields)
		}
	}

	h.Set(key, string(bytes.TrimSpace(fields[colonIdx+1:])))

	return idx + 2, false, nil
}

// Set appends to an existing value as a comma separated list.
func (h *Headers) Set(key, value string) {
	key = strings.ToLower(key)
	if v, ok := h.values[key]; ok {
		h.values[key] = v + ", " + value
		return
	}
	h.keys = append(h.keys, key)
	h.values[key] = value
}

// SetNew replaces any existing value, keeping the original position.
func (h *Headers) SetNew(key, value string) {
	key = strings.ToLower(key)
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

func (h *Headers) Get(key string) string {
	return h.values[strings.ToLower(key)]
}

func (h *Headers) Del(key string) {
	key = strings.ToLower(key)
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

func (h *Headers) Len() int {
	return len(h.keys)
}

// Keys returns field names in insertion order.
func (h *Headers) Keys() []string {
	return append([]string(nil), h.keys...)
}

// Write emits every field as "Name: value\r\n" followed by the blank line.
func (h *Headers) Write(w io.Writer) (int, error) {
	caser := cases.Title(language.English)

	var buf bytes.Buffer
	for _, k := range h.keys {
		buf.WriteString(caser.String(k) + ": " + h.values[k] + crlf)
	}
	buf.WriteString(crlf)

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return n, fmt.Errorf("error writing headers: %w", err)
	}
	return n, nil
}
