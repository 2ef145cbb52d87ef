package http

import (
	"bytes"
	"strings"
)

// ParseRequest decodes one framed request. It never fails: missing request
// line tokens become empty strings and a malformed Content-Length is 0.
func ParseRequest(data []byte) *Request {
	req := newRequest()

	head, rest := data, []byte(nil)
	if end := bytes.Index(data, headerTerminator); end >= 0 {
		head, rest = data[:end], data[end+len(headerTerminator):]
	}

	lines := strings.Split(string(head), "\n")
	parseRequestLine(req, lines[0])

	for _, line := range lines[1:] {
		line = trim(line)
		if line == "" {
			break
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		req.Headers[trim(line[:colon])] = trim(line[colon+1:])
	}

	if cookie := req.Header(HeaderCookie); cookie != "" {
		parseCookies(req.Cookies, cookie)
	}

	req.contentLength, req.framed = scanContentLength(head), true
	if n := req.contentLength; n > 0 {
		if n > len(rest) {
			n = len(rest)
		}
		req.Body = append([]byte(nil), rest[:n]...)
	}

	return req
}

// parseRequestLine splits "METHOD TARGET VERSION" and decodes the target.
func parseRequestLine(req *Request, line string) {
	fields := strings.Fields(line)
	if len(fields) > 0 {
		req.Method = fields[0]
	}
	if len(fields) > 1 {
		target := fields[1]
		if q := strings.IndexByte(target, '?'); q >= 0 {
			req.RawQuery = target[q+1:]
			parseQuery(req.Query, req.RawQuery)
			target = target[:q]
		}
		req.Path = decodeComponent(target)
	}
	if len(fields) > 2 {
		req.Proto = fields[2]
	}
}

// parseQuery fills dst from a&b=c style pairs. Keys without '=' map to "".
func parseQuery(dst map[string]string, query string) {
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		dst[decodeComponent(key)] = decodeComponent(value)
	}
}

// parseCookies fills dst from "a=1; b=2". Items without '=' are skipped.
func parseCookies(dst map[string]string, header string) {
	for _, item := range strings.Split(header, ";") {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		dst[trim(key)] = trim(value)
	}
}

func trim(s string) string {
	return strings.Trim(s, " \t\r\n")
}
