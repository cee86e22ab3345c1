package coordinates

import "errors"

var (
	// ErrZeroDistance is returned when a direction is requested for the
	// zero vector.
	ErrZeroDistance = errors.New("zero distance: longitude and latitude are undefined")

	// ErrMalformedMatrix is returned when a transform is not 4x4.
	ErrMalformedMatrix = errors.New("malformed homogeneous matrix")

	// ErrUnknownFrame is returned for a shape, plane, origin or physical
	// state outside the supported set.
	ErrUnknownFrame = errors.New("unknown coordinate frame")
)

// DomainError reports a mathematically undefined operation
type DomainError struct {
	Op  string
	Err error
}

func (e *DomainError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}
