package upload

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
)

// Class is the retry decision for one error.
type Class int

const (
	// Fatal errors are surfaced immediately.
	Fatal Class = iota
	// Retriable errors are retried from the confirmed offset after a backoff.
	Retriable
)

func (c Class) String() string {
	if c == Retriable {
		return "retriable"
	}
	return "fatal"
}

// DefaultRetriableStatusCodes lists the server overload and unavailability
// statuses that are retried.
var DefaultRetriableStatusCodes = []int{500, 502, 503, 504}

// Classifier maps transport failures to a Class. The zero value uses
// DefaultRetriableStatusCodes.
type Classifier struct {
	statuses map[int]struct{}
}

// NewClassifier builds a classifier retrying the supplied HTTP statuses. An
// empty list falls back to DefaultRetriableStatusCodes.
func NewClassifier(statusCodes ...int) Classifier {
	if len(statusCodes) == 0 {
		statusCodes = DefaultRetriableStatusCodes
	}
	statuses := make(map[int]struct{}, len(statusCodes))
	for _, code := range statusCodes {
		statuses[code] = struct{}{}
	}
	return Classifier{statuses: statuses}
}

// Classify decides whether err is worth retrying. Unknown errors are fatal.
func (c Classifier) Classify(err error) Class {
	if err == nil {
		return Fatal
	}
	if errors.Is(err, ErrProtocol) || errors.Is(err, context.Canceled) {
		return Fatal
	}
	if errors.Is(err, ErrNoProgress) {
		return Retriable
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if c.retriableStatus(statusErr.StatusCode) {
			return Retriable
		}
		return Fatal
	}

	if isNetworkFailure(err) {
		return Retriable
	}
	return Fatal
}

func (c Classifier) retriableStatus(code int) bool {
	if c.statuses == nil {
		for _, candidate := range DefaultRetriableStatusCodes {
			if candidate == code {
				return true
			}
		}
		return false
	}
	_, ok := c.statuses[code]
	return ok
}

func isNetworkFailure(err error) bool {
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return false
}
