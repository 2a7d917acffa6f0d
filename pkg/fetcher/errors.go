package fetcher

import (
	"errors"
	"fmt"
)

// ErrTooManyRedirects is returned when a resource redirects past the limit.
var ErrTooManyRedirects = errors.New("too many redirects")

// errTransferCanceled is returned by body reads after Cancel.
var errTransferCanceled = errors.New("transfer canceled")

// ErrorKind classifies a failed probe.
type ErrorKind string

const (
	KindInvalidURL       ErrorKind = "invalid_url"
	KindRequest          ErrorKind = "request"
	KindStatus           ErrorKind = "status"
	KindTimeout          ErrorKind = "timeout"
	KindTooManyRedirects ErrorKind = "too_many_redirects"
	KindAmbiguousContent ErrorKind = "ambiguous_content"
	KindCanceled         ErrorKind = "canceled"
	KindCircuitOpen      ErrorKind = "circuit_open"
)

// FetchError is the typed failure of one probe. It is local to that resource.
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("fetch %s: unexpected status code: %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsKind reports whether err is a FetchError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == k
}
