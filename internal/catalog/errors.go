package catalog

// Domain failures raised deep in the reconciliation logic. The HTTP layer
// translates them to status codes; the core never renders a response.

// InvalidDataError indicates caller-supplied data violating a structural
// invariant, such as a malformed file_path or conflicting patch fields.
type InvalidDataError struct {
	Detail string
}

func (e *InvalidDataError) Error() string {
	if e.Detail == "" {
		return "invalid data"
	}
	return e.Detail
}

// NotFoundError indicates a referenced entity or physical file was absent
// when the operation required it.
type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string {
	if e.Detail == "" {
		return "not found"
	}
	return e.Detail
}

// UnexpectedError indicates an internal failure: a store or file-store call
// that broke, or an invariant the code assumed was already enforced turning
// out false.
type UnexpectedError struct {
	Detail string
	Err    error
}

func (e *UnexpectedError) Error() string {
	switch {
	case e.Detail == "" && e.Err == nil:
		return "unexpected error"
	case e.Err == nil:
		return e.Detail
	case e.Detail == "":
		return e.Err.Error()
	}
	return e.Detail + ": " + e.Err.Error()
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// InvalidData builds an InvalidDataError with a detail message.
func InvalidData(detail string) error { return &InvalidDataError{Detail: detail} }

// NotFound builds a NotFoundError with a detail message.
func NotFound(detail string) error { return &NotFoundError{Detail: detail} }

// Unexpected builds an UnexpectedError wrapping an underlying cause, which
// may be nil.
func Unexpected(detail string, err error) error { return &UnexpectedError{Detail: detail, Err: err} }
