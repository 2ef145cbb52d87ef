// Package http implements the HTTP/1.1 message layer: framing a request out
// of a byte stream, parsing it into a Request, and encoding a Response back
// into wire bytes. Persistent connections and chunked transfer coding are not
// supported; every response carries "Connection: close".
package http
