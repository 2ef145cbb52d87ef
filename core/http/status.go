package http

import "strconv"

// Status is an HTTP response status code.
type Status int

const (
	StatusOK        Status = 200
	StatusCreated   Status = 201
	StatusNoContent Status = 204

	StatusMovedPermanently Status = 301
	StatusFound            Status = 302
	StatusSeeOther         Status = 303
	StatusNotModified      Status = 304

	StatusBadRequest       Status = 400
	StatusUnauthorized     Status = 401
	StatusForbidden        Status = 403
	StatusNotFound         Status = 404
	StatusMethodNotAllowed Status = 405
	StatusRequestTooLarge  Status = 413
	StatusTooManyRequests  Status = 429

	StatusInternalServerError Status = 500
	StatusNotImplemented      Status = 501
	StatusBadGateway          Status = 502
	StatusServiceUnavailable  Status = 503
)

// Reason returns the reason phrase written on the status line.
func (s Status) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusCreated:
		return "Created"
	case StatusNoContent:
		return "No Content"
	case StatusMovedPermanently:
		return "Moved Permanently"
	case StatusFound:
		return "Found"
	case StatusSeeOther:
		return "See Other"
	case StatusNotModified:
		return "Not Modified"
	case StatusBadRequest:
		return "Bad Request"
	case StatusUnauthorized:
		return "Unauthorized"
	case StatusForbidden:
		return "Forbidden"
	case StatusNotFound:
		return "Not Found"
	case StatusMethodNotAllowed:
		return "Method Not Allowed"
	case StatusRequestTooLarge:
		return "Request Entity Too Large"
	case StatusTooManyRequests:
		return "Too Many Requests"
	case StatusInternalServerError:
		return "Internal Server Error"
	case StatusNotImplemented:
		return "Not Implemented"
	case StatusBadGateway:
		return "Bad Gateway"
	case StatusServiceUnavailable:
		return "Service Unavailable"
	default:
		return "Unknown"
	}
}

// Code returns the numeric status code.
func (s Status) Code() int { return int(s) }

// IsRedirect reports whether s is a 3xx status.
func (s Status) IsRedirect() bool { return s >= 300 && s < 400 }

func (s Status) String() string {
	return strconv.Itoa(int(s)) + " " + s.Reason()
}
