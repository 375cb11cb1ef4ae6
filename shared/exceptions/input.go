package exceptions

type InputError struct {
	error
}

func NewInputError(err error) *InputError {
	return &InputError{err}
}

func (e *InputError) Error() string {
	return "Input Error: " + e.error.Error()
}

func (e *InputError) Unwrap() error {
	return e.error
}
