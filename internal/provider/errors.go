// Package provider holds the error kinds shared by the lookup clients.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrNotFound reports a valid response that carried no product.
var ErrNotFound = errors.New("product not found")

// StatusError is a non-2xx response other than 404.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.Code)
}

// TransientError wraps failures that may succeed on retry: timeouts,
// refused connections, DNS errors.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient network failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Classify turns a transport error into a *TransientError. Context
// cancellation is returned as is.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var te *TransientError
	if errors.As(err, &te) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return &TransientError{Err: err}
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return &TransientError{Err: err}
	}
	return err
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
