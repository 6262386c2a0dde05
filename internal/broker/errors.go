package broker

import "fmt"

// ErrorKind classifies broker failures for logging and metrics. Execution
// retries do not branch on kind; the retry budget is the policy.
type ErrorKind string

const (
	KindAuth        ErrorKind = "auth"
	KindRateLimit   ErrorKind = "rate_limit"
	KindRejected    ErrorKind = "rejected"
	KindNotFound    ErrorKind = "not_found"
	KindUnavailable ErrorKind = "unavailable"
	KindInternal    ErrorKind = "internal"
)

// Error is a broker failure tagged with the operation that produced it.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("broker %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a broker error for op.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
