package response

type StatusCode int

const (
	StatusOK         StatusCode = 200
	StatusBadRequest StatusCode = 400
	StatusForbidden  StatusCode = 403
	StatusNotFound   StatusCode = 404
)

func (s StatusCode) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "Bad Request"
	case StatusForbidden:
		return "Forbidden"
	case StatusNotFound:
		return "File Not Found"
	default:
		return ""
	}
}
