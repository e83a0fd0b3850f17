package matrix

import "errors"

var (
	// ErrMalformedDate is returned when a start or end date cannot be parsed
	ErrMalformedDate = errors.New("malformed date")

	// ErrUnknownCode is returned when a label or entry maps outside the known code set
	ErrUnknownCode = errors.New("unknown zone code")

	// ErrInvalidTable is returned when a zone table fails validation
	ErrInvalidTable = errors.New("invalid zone table")
)
