package exceptions

import "fmt"

type ConfigError struct {
	error
}

func NewConfigError(format string, a ...any) *ConfigError {
	return &ConfigError{fmt.Errorf(format, a...)}
}

func (e *ConfigError) Error() string {
	return "Config Error: " + e.error.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.error
}
