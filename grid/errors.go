package grid

import "errors"

// ErrInvalidAddress indicates a malformed column or row token.
var ErrInvalidAddress = errors.New("invalid address")

// ErrMalformedRange indicates range text that does not parse into two addresses.
var ErrMalformedRange = errors.New("malformed range")

// ErrOutOfBounds indicates a structural operation on a row or column that does not exist.
var ErrOutOfBounds = errors.New("out of bounds")
