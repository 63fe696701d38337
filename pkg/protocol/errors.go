package protocol

import "errors"

var (
	ErrMalformed        = errors.New("malformed envelope")
	ErrMalformedPayload = errors.New("malformed message payload")
)

// DecodeErrorKind tells envelope-level failures apart from failures of the
// nested message payload.
type DecodeErrorKind int

const (
	Malformed DecodeErrorKind = iota + 1
	MalformedPayload
)

// String returns a short name for the kind.
func (k DecodeErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case MalformedPayload:
		return "malformed payload"
	default:
		return "unknown"
	}
}

// DecodeError is returned by every decode path of this package.
// It matches ErrMalformed or ErrMalformedPayload with errors.Is.
type DecodeError struct {
	Kind DecodeErrorKind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return e.sentinel().Error()
	}
	return e.sentinel().Error() + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *DecodeError) sentinel() error {
	if e.Kind == MalformedPayload {
		return ErrMalformedPayload
	}
	return ErrMalformed
}

func malformed(err error) error {
	return &DecodeError{Kind: Malformed, Err: err}
}

func malformedPayload(err error) error {
	return &DecodeError{Kind: MalformedPayload, Err: err}
}
