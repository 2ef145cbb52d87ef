package http

// HTTP header constants
const (
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderConnection    = "Connection"
	HeaderCookie        = "Cookie"
	HeaderLocation      = "Location"
	HeaderHost          = "Host"
	HeaderAccept        = "Accept"
	HeaderUserAgent     = "User-Agent"
)

// Content types set by the response helpers.
const (
	MIMETextPlain   = "text/plain; charset=utf-8"
	MIMETextHTML    = "text/html; charset=utf-8"
	MIMEOctetStream = "application/octet-stream"
)
