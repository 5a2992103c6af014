package commerce

import (
	"errors"
	"fmt"
)

var (
	ErrNoOrderNumber = errors.New("commerce api returned no order number")
	ErrCartNotFound  = errors.New("remote cart not found")
)

// RemoteCallError wraps any failure of a commerce API call. The core never
// retries these; callers surface them and keep the shopper's state.
type RemoteCallError struct {
	Operation string
	Err       error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("commerce %s failed: %v", e.Operation, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// IsRemoteCallError reports whether err is or wraps a RemoteCallError
func IsRemoteCallError(err error) bool {
	var rce *RemoteCallError
	return errors.As(err, &rce)
}

type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLErrors []graphQLError

func (e graphQLErrors) Error() string {
	if len(e) == 1 {
		return e[0].Message
	}
	msg := e[0].Message
	for _, ge := range e[1:] {
		msg += "; " + ge.Message
	}
	return msg
}
