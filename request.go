package rill

import (
	"fmt"
	"strings"
)

// Request is an immutable description of an outbound call. Build one per
// logical operation and never mutate it after construction; the executor
// passes the same value to every retry attempt.
type Request struct {
	// Method is the call verb, e.g. "GET" or "POST".
	Method string

	// Path is the target of the call. Resolution is the transport's concern;
	// the executor only requires it to be non-empty.
	Path string

	// Headers carries call metadata. Keys are unique; insertion order is
	// irrelevant.
	Headers map[string]string

	// Body is the opaque payload, nil when the call carries none.
	Body []byte
}

var knownMethods = map[string]struct{}{
	"GET":    {},
	"HEAD":   {},
	"POST":   {},
	"PUT":    {},
	"PATCH":  {},
	"DELETE": {},
}

// Validate checks that the request is well-formed: a known method and a
// resolvable (non-empty) path. An invalid request fails immediately with
// KindInvalidRequest and is never submitted to the transport.
func (r Request) Validate() error {
	if _, ok := knownMethods[strings.ToUpper(r.Method)]; !ok {
		return fmt.Errorf("unknown method %q", r.Method)
	}
	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("empty path")
	}
	return nil
}

// Header returns a copy of the request with the header set. The receiver is
// left untouched so shared requests stay immutable.
func (r Request) Header(key, value string) Request {
	headers := make(map[string]string, len(r.Headers)+1)
	for k, v := range r.Headers {
		headers[k] = v
	}
	headers[key] = value
	r.Headers = headers
	return r
}
