package http

import (
	"strconv"
	"strings"
)

// Header is an insertion-ordered set of response header fields. Keys compare
// case-insensitively; setting an existing key keeps its position.
type Header struct {
	fields []field
}

type field struct {
	key   string
	value string
}

// Set adds or replaces key.
func (h *Header) Set(key, value string) {
	for i := range h.fields {
		if strings.EqualFold(h.fields[i].key, key) {
			h.fields[i] = field{key, value}
			return
		}
	}
	h.fields = append(h.fields, field{key, value})
}

// Get returns the value of key, or "".
func (h *Header) Get(key string) string {
	for _, f := range h.fields {
		if strings.EqualFold(f.key, key) {
			return f.value
		}
	}
	return ""
}

// Has reports whether key is present.
func (h *Header) Has(key string) bool {
	for _, f := range h.fields {
		if strings.EqualFold(f.key, key) {
			return true
		}
	}
	return false
}

// Del removes key.
func (h *Header) Del(key string) {
	for i, f := range h.fields {
		if strings.EqualFold(f.key, key) {
			h.fields = append(h.fields[:i], h.fields[i+1:]...)
			return
		}
	}
}

// Len returns the number of fields.
func (h *Header) Len() int { return len(h.fields) }

// Each calls fn for every field in insertion order.
func (h *Header) Each(fn func(key, value string)) {
	for _, f := range h.fields {
		fn(f.key, f.value)
	}
}

// Response is built by exactly one handler and consumed once by the encoder.
// A zero Status is sent as 200.
type Response struct {
	Status Status
	Body   []byte

	header Header
}

// NewResponse returns an empty 200 response.
func NewResponse() *Response {
	return &Response{Status: StatusOK}
}

// Header returns the mutable header set.
func (r *Response) Header() *Header { return &r.header }

// SetStatus sets the status code.
func (r *Response) SetStatus(s Status) *Response {
	r.Status = s
	return r
}

// SetHeader sets one header field.
func (r *Response) SetHeader(key, value string) *Response {
	r.header.Set(key, value)
	return r
}

// SetBody stores body and keeps Content-Type and Content-Length in step.
func (r *Response) SetBody(body []byte, contentType string) *Response {
	if contentType == "" {
		contentType = MIMETextPlain
	}
	r.Body = body
	r.header.Set(HeaderContentType, contentType)
	r.header.Set(HeaderContentLength, strconv.Itoa(len(body)))
	return r
}

// SetBodyString is SetBody for string bodies.
func (r *Response) SetBodyString(body, contentType string) *Response {
	return r.SetBody([]byte(body), contentType)
}

// StatusCode returns the status that will be written.
func (r *Response) StatusCode() Status {
	if r.Status == 0 {
		return StatusOK
	}
	return r.Status
}

// Text builds a plain-text response.
func Text(status Status, body string) *Response {
	return NewResponse().SetStatus(status).SetBodyString(body, MIMETextPlain)
}

// HTML builds an HTML response.
func HTML(status Status, body string) *Response {
	return NewResponse().SetStatus(status).SetBodyString(body, MIMETextHTML)
}

// Data builds a response with an explicit content type.
func Data(status Status, contentType string, body []byte) *Response {
	return NewResponse().SetStatus(status).SetBody(body, contentType)
}

// Redirect builds a 3xx response pointing at location.
func Redirect(status Status, location string) *Response {
	if !status.IsRedirect() {
		status = StatusFound
	}
	return NewResponse().SetStatus(status).SetHeader(HeaderLocation, location).SetBody(nil, MIMETextPlain)
}

// Error builds the plain-text "<code> <reason>" body used for error statuses.
func Error(status Status) *Response {
	return Text(status, status.String())
}

// BodyEncoder serializes a value into a response body.
type BodyEncoder interface {
	Encode(v any) ([]byte, error)
	ContentType() string
}

// Encoded builds a response whose body is v serialized by enc.
func Encoded(status Status, enc BodyEncoder, v any) (*Response, error) {
	data, err := enc.Encode(v)
	if err != nil {
		return nil, err
	}
	return Data(status, enc.ContentType(), data), nil
}
