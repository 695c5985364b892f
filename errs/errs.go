// Package errs provides structured error envelopes for the relay.
package errs

import (
	"errors"
	"strconv"
	"strings"
)

// Code classifies a failure by where it originated.
type Code string

const (
	// CodeValidation indicates a malformed or unsupported inbound signal.
	CodeValidation Code = "validation"
	// CodeUpstream indicates a non-success or unparseable exchange response.
	CodeUpstream Code = "upstream"
	// CodeComputation indicates the sizing logic rejected the trade.
	CodeComputation Code = "computation"
	// CodeAuth indicates credential material could not be used to sign a request.
	CodeAuth Code = "auth"
	// CodeNetwork indicates a transport-level failure before any response arrived.
	CodeNetwork Code = "network"
	// CodeUnavailable indicates a guard refused the operation (throttle, limits).
	CodeUnavailable Code = "unavailable"
)

// E captures structured error information produced across the relay.
type E struct {
	Venue   string
	Code    Code
	HTTP    int
	RawBody string
	Message string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the venue and error code.
func New(venue string, code Code, opts ...Option) *E {
	e := &E{Venue: strings.TrimSpace(venue), Code: code}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithHTTP records the upstream HTTP status code.
func WithHTTP(status int) Option {
	return func(e *E) {
		e.HTTP = status
	}
}

// WithRawBody captures the raw response body returned by the exchange.
func WithRawBody(body string) Option {
	return func(e *E) {
		e.RawBody = strings.TrimSpace(body)
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	venue := e.Venue
	if venue == "" {
		venue = "unknown"
	}
	parts = append(parts, "venue="+venue)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.HTTP > 0 {
		parts = append(parts, "http="+strconv.Itoa(e.HTTP))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.RawBody != "" {
		parts = append(parts, "raw_body="+strconv.Quote(e.RawBody))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// CodeOf extracts the classification of err, or the empty code when err
// carries no envelope.
func CodeOf(err error) Code {
	var e *E
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage renders err as readable text suitable for an API response,
// preferring the envelope message over the raw diagnostic payload.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *E
	if errors.As(err, &e) {
		switch {
		case e.Message != "" && e.RawBody != "":
			return e.Message + ": " + e.RawBody
		case e.Message != "":
			return e.Message
		case e.RawBody != "":
			return e.RawBody
		}
	}
	return err.Error()
}

// Validation builds a validation error with the supplied message.
func Validation(msg string) *E {
	return New("relay", CodeValidation, WithMessage(msg))
}

// Computation builds a sizing rejection with the supplied message.
func Computation(msg string) *E {
	return New("relay", CodeComputation, WithMessage(msg))
}
