package parse

import "errors"

// Sentinel kinds for parsing errors.
var (
	ErrUnparsable = errors.New("no puzzle result found in text")
)
