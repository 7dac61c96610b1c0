package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested item is not found.
	NotFound = ErrorKind("Not Found")

	// Unsupported is returned when a feature, network or backend is not supported.
	Unsupported = ErrorKind("Unsupported")

	// InvalidArgument is returned when a caller passes a malformed value or configuration.
	InvalidArgument = ErrorKind("Invalid Argument")

	// InternalError is returned when an invariant of the indexer itself is broken.
	InternalError = ErrorKind("Internal Error")

	SomethingWentWrong = ErrorKind("Something Went Wrong")
	Timeout            = ErrorKind("Timeout")
	Closed             = ErrorKind("Closed")

	OverflowUint32  = ErrorKind("overflow uint32")
	OverflowUint64  = ErrorKind("overflow uint64")
	OverflowUint128 = ErrorKind("overflow uint128")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
