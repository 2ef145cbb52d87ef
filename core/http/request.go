package http

import "strings"

// Request is a parsed HTTP request. It is built once per connection and must
// be treated as read-only by handlers.
type Request struct {
	Method   string
	Path     string // decoded, without the query component
	RawQuery string
	Proto    string

	// Headers keeps keys as received; a repeated key keeps the last value.
	Headers map[string]string
	Query   map[string]string
	Cookies map[string]string

	Body []byte

	// contentLength is the length the request was framed with, valid when
	// framed is set.
	contentLength int
	framed        bool
}

// HandlerFunc turns a request into a response. A non-nil error is a handler
// fault and is answered with a 500.
type HandlerFunc func(req *Request) (*Response, error)

func newRequest() *Request {
	return &Request{
		Headers: make(map[string]string),
		Query:   make(map[string]string),
		Cookies: make(map[string]string),
	}
}

// Header returns the value for key, preferring an exact match and falling
// back to a case-insensitive one.
func (r *Request) Header(key string) string {
	if v, ok := r.Headers[key]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// QueryValue returns a decoded query parameter.
func (r *Request) QueryValue(key string) string {
	return r.Query[key]
}

// Cookie returns a cookie value from the Cookie header.
func (r *Request) Cookie(name string) string {
	return r.Cookies[name]
}

// ContentLength returns the declared body length, 0 when absent or malformed.
// For a parsed request it is the value the frame was delimited by: the last
// Content-Length line, whatever its case.
func (r *Request) ContentLength() int {
	if r.framed {
		return r.contentLength
	}
	return parseContentLength(r.Header(HeaderContentLength))
}
