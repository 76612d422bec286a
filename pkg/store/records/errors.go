package records

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("record not found")

// DecodeError means stored bytes do not match the expected record layout,
// usually schema drift. It is never silently dropped on point reads.
type DecodeError struct {
	Namespace string
	Key       []byte
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s/%x: %v", e.Namespace, e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type EncodeError struct {
	Namespace string
	Key       []byte
	Err       error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s/%x: %v", e.Namespace, e.Key, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
