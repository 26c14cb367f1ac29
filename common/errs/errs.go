package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested item is not found.
	NotFound           = ErrorKind("Not Found")
	InvalidArgument    = ErrorKind("Invalid Argument")
	Unsupported        = ErrorKind("Unsupported")
	SomethingWentWrong = ErrorKind("Something went wrong")
	Duplicate          = ErrorKind("Duplicate")
	OverflowUint64     = ErrorKind("overflow uint64")
	OverflowUint128    = ErrorKind("overflow uint128")

	// ParseError is returned when an inbound parameter blob cannot be decoded.
	ParseError = ErrorKind("parse error")
	// Unauthorized is returned when the caller identity or the provided
	// signature set does not satisfy the entrypoint's authorization rule.
	Unauthorized = ErrorKind("unauthorized")
	// Expired is returned when a permit message is past its validity window.
	Expired = ErrorKind("permit expired")
	// OutOfEnergy is returned when a call exhausts its metered energy budget.
	OutOfEnergy = ErrorKind("out of energy")
)

// Invoke failure kinds. A failed cross-contract call is translated into one
// of these and propagated; the host rolls back the whole outer call.
const (
	AmountTooLarge    = ErrorKind("amount too large")
	MissingAccount    = ErrorKind("missing account")
	MissingContract   = ErrorKind("missing contract")
	MissingEntrypoint = ErrorKind("missing entrypoint")
	MessageFailed     = ErrorKind("message failed")
	Trap              = ErrorKind("trap")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
