package grid

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAborted is returned when a load was superseded or cancelled before its result was applied.
	ErrAborted = errors.New("load aborted")

	// ErrNoSchema is returned when a grid or state is built without a column schema.
	ErrNoSchema = errors.New("column schema is nil")

	// ErrNoLoader is returned when a ServerPaged grid has no Loader.
	ErrNoLoader = errors.New("server paged grid requires a loader")

	// ErrEmptyColumnID is returned when a column has no id.
	ErrEmptyColumnID = errors.New("column id is empty")

	// ErrDuplicateColumn is returned when two columns share an id.
	ErrDuplicateColumn = errors.New("duplicate column id")

	// ErrInvalidDirection is returned by ParseDirection for anything but asc or desc.
	ErrInvalidDirection = errors.New("invalid sort direction")
)

// NetworkError reports a transport failure or a non-2xx response from the row source.
type NetworkError struct {
	URL    string
	Status int // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("loading %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("loading %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a row source response that is not a JSON array of objects.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}

func IsNetwork(err error) bool {
	var nErr *NetworkError
	return errors.As(err, &nErr)
}

func IsDecode(err error) bool {
	var dErr *DecodeError
	return errors.As(err, &dErr)
}
