// Package resolve maps a request path onto a readable file, descending into
// directories to find an index file.
package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// MaxIndexDepth bounds how many directory levels an index lookup may descend.
const MaxIndexDepth = 8

var (
	ErrNotFound  = errors.New("file not found")
	ErrForbidden = errors.New("forbidden")

	// IndexFiles are tried in order when a path names a directory.
	IndexFiles = []string{"index.html", "index.shtml", "index.txt"}
)

type ContentType int

const (
	Plain ContentType = iota
	HTML
)

func (c ContentType) String() string {
	if c == HTML {
		return "html"
	}
	return "plain"
}

// MIME returns the Content-Type header value.
func (c ContentType) MIME() string {
	return "text/" + c.String()
}

func ContentTypeOf(path string) ContentType {
	if filepath.Ext(path) == ".html" {
		return HTML
	}
	return Plain
}

type File struct {
	Path        string
	Body        []byte
	ContentType ContentType
}

// Resolver is read-only. A zero Resolver uses request paths literally,
// relative to the working directory or absolute.
type Resolver struct {
	// Root, when set, confines every lookup beneath it.
	Root string
}

type candidate struct {
	path  string
	depth int
}

// Resolve returns the file named by path, or an error matching ErrNotFound
// or ErrForbidden.
func (r *Resolver) Resolve(path string) (*File, error) {
	stack := []candidate{{path: r.locate(path)}}
	forbidden := false

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		info, err := os.Stat(c.path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				forbidden = true
			}
			continue
		}

		if info.IsDir() {
			if c.depth >= MaxIndexDepth {
				forbidden = true
				continue
			}
			for i := len(IndexFiles) - 1; i >= 0; i-- {
				stack = append(stack, candidate{
					path:  filepath.Join(c.path, IndexFiles[i]),
					depth: c.depth + 1,
				})
			}
			continue
		}
		if !info.Mode().IsRegular() {
			forbidden = true
			continue
		}

		body, err := readText(c.path)
		if err != nil {
			forbidden = true
			continue
		}
		return &File{
			Path:        c.path,
			Body:        body,
			ContentType: ContentTypeOf(c.path),
		}, nil
	}

	if forbidden {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, path)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

func (r *Resolver) locate(path string) string {
	if r.Root == "" {
		return path
	}
	return filepath.Join(r.Root, filepath.Clean("/"+path))
}

func readText(path string) ([]byte, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("%s: not valid UTF-8 text", path)
	}
	return body, nil
}
