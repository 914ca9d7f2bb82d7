package response

import (
	"io"
	"strconv"

	"github.com/nhdewitt/fileserver-from-tcp/internal/headers"
)

const DefaultServerName = "fileserver-from-tcp/0.1"

// Outcome is the single result of one exchange. Only StatusOK carries
// headers and a body.
type Outcome struct {
	Status      StatusCode
	ContentType string
	Body        []byte
	ServerName  string
}

func BadRequest() Outcome { return Outcome{Status: StatusBadRequest} }
func NotFound() Outcome   { return Outcome{Status: StatusNotFound} }
func Forbidden() Outcome  { return Outcome{Status: StatusForbidden} }

func OK(contentType string, body []byte) Outcome {
	return Outcome{
		Status:      StatusOK,
		ContentType: contentType,
		Body:        body,
	}
}

// Headers builds the header block sent with a 200. Content-Length is the
// byte length of the body.
func (o Outcome) Headers() *headers.Headers {
	name := o.ServerName
	if name == "" {
		name = DefaultServerName
	}

	h := headers.NewHeaders()
	h.SetNew("Server", name)
	h.SetNew("Content-Type", o.ContentType)
	h.SetNew("Content-Length", strconv.Itoa(len(o.Body)))
	return h
}

// WriteTo serializes the outcome onto w and reports the bytes written.
func (o Outcome) WriteTo(w io.Writer) (int64, error) {
	rw := NewWriter(w)
	if err := rw.WriteStatusLine(o.Status); err != nil {
		return rw.Written(), err
	}
	if o.Status != StatusOK {
		return rw.Written(), nil
	}

	if err := rw.WriteHeaders(o.Headers()); err != nil {
		return rw.Written(), err
	}
	if _, err := rw.WriteBody(o.Body); err != nil {
		return rw.Written(), err
	}
	return rw.Written(), nil
}
