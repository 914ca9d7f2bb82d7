package server

import (
	"errors"

	"github.com/nhdewitt/fileserver-from-tcp/internal/request"
	"github.com/nhdewitt/fileserver-from-tcp/internal/resolve"
	"github.com/nhdewitt/fileserver-from-tcp/internal/response"
)

// Handler turns a parsed request into the outcome written back to the
// client. It is only called for requests that parsed.
type Handler func(req *request.Request) response.Outcome

// FileHandler serves req.Path through r.
func FileHandler(r *resolve.Resolver) Handler {
	return func(req *request.Request) response.Outcome {
		f, err := r.Resolve(req.Path)
		switch {
		case err == nil:
			return response.OK(f.ContentType.MIME(), f.Body)
		case errors.Is(err, resolve.ErrNotFound):
			return response.NotFound()
		default:
			return response.Forbidden()
		}
	}
}
