package exceptions

type OutputError struct {
	error
}

func NewOutputError(err error) *OutputError {
	return &OutputError{err}
}

func (e *OutputError) Error() string {
	return "Output Error: " + e.error.Error()
}

func (e *OutputError) Unwrap() error {
	return e.error
}
