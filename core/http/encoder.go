package http

import (
	"strconv"
	"strings"
)

// EncodeResponse serializes res for the wire. It performs no I/O.
//
// Headers are written in insertion order. Content-Length always carries the
// body length, added after the other fields when the handler did not set it.
// Any Connection field is replaced by "Connection: close".
func EncodeResponse(res *Response) []byte {
	return AppendResponse(make([]byte, 0, EncodedSize(res)), res)
}

// EncodedSize estimates the encoded length of res for buffer sizing.
func EncodedSize(res *Response) int {
	size := 128 + len(res.Body)
	res.header.Each(func(k, v string) { size += len(k) + len(v) + 4 })
	return size
}

// AppendResponse is EncodeResponse writing into b.
func AppendResponse(b []byte, res *Response) []byte {
	status := res.StatusCode()

	b = append(b, "HTTP/1.1 "...)
	b = strconv.AppendInt(b, int64(status), 10)
	b = append(b, ' ')
	b = append(b, status.Reason()...)
	b = append(b, "\r\n"...)

	hasLength := false
	res.header.Each(func(k, v string) {
		switch {
		case strings.EqualFold(k, HeaderConnection):
			return
		case strings.EqualFold(k, HeaderContentLength):
			hasLength = true
			v = strconv.Itoa(len(res.Body))
		}
		b = appendField(b, k, v)
	})
	if !hasLength {
		b = appendField(b, HeaderContentLength, strconv.Itoa(len(res.Body)))
	}
	b = appendField(b, HeaderConnection, "close")

	b = append(b, "\r\n"...)
	b = append(b, res.Body...)
	return b
}

func appendField(b []byte, key, value string) []byte {
	b = append(b, key...)
	b = append(b, ": "...)
	b = append(b, value...)
	return append(b, "\r\n"...)
}
