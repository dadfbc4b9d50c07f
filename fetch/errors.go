package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrHTTPStatus matches any *Error of KindHTTPStatus.
	ErrHTTPStatus = errors.New("http error status")

	// ErrTransport matches any *Error of KindTransport.
	ErrTransport = errors.New("transport failure")

	// ErrTimeout matches any *Error of KindTimeout.
	ErrTimeout = errors.New("fetch timed out")

	// ErrInvalidConfig is returned by NewWebFetcher for unusable settings.
	ErrInvalidConfig = errors.New("invalid fetch config")
)

// Kind classifies a fetch failure.
type Kind int

const (
	KindHTTPStatus Kind = iota + 1
	KindTransport
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindHTTPStatus:
		return "http_status"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by WebFetcher.Fetch for every terminal failure.
type Error struct {
	Kind       Kind
	StatusCode int // set for KindHTTPStatus
	URL        string
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	case KindTimeout:
		return fmt.Sprintf("fetch %s: timed out after %d attempts", e.URL, e.Attempts)
	default:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match an *Error against the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrHTTPStatus:
		return e.Kind == KindHTTPStatus
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}
