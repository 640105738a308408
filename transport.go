package rill

import "context"

// RawResponse is the undecoded result of a transport exchange.
type RawResponse struct {
	// Status is the HTTP-style status code of the exchange.
	Status int

	// Body is the raw payload, possibly empty.
	Body []byte
}

// Transport submits a request and returns raw bytes plus status metadata.
// Implementations must honor context cancellation; an in-flight call is
// aborted best-effort when the context is canceled.
//
// Transport-level failures are returned as errors. A transport may return a
// *Error with KindTimeout or KindUnavailable to classify the failure itself;
// any other error is classified as KindUnavailable, except context deadline
// expiry which becomes KindTimeout.
type Transport interface {
	Do(ctx context.Context, req Request) (*RawResponse, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) (*RawResponse, error)

// Do implements Transport.
func (f TransportFunc) Do(ctx context.Context, req Request) (*RawResponse, error) {
	return f(ctx, req)
}
