package apperr

import "errors"

// ErrNotFound is returned by tracking readers when a run does not exist.
var ErrNotFound = errors.New("not found")

type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// ConfigError reports a configuration document that cannot be used: the file is
// unreadable, the YAML is malformed, or a required key is absent.
type ConfigError struct {
	Path string
	Key  string
	Err  error
}

func (e *ConfigError) Error() string {
	msg := "configuration"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Key != "" {
		msg += ": key " + e.Key
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ErrMissingKey is wrapped by ConfigError when a required key is absent.
var ErrMissingKey = errors.New("required key is missing")

func NewMissingKey(key string) *ConfigError {
	return &ConfigError{Key: key, Err: ErrMissingKey}
}

func NewConfigWrap(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}

// LibraryError wraps a failure raised by the analog layer or a device model
// during forward, backward or optimizer steps.
type LibraryError struct {
	Op  string
	Err error
}

func (e *LibraryError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *LibraryError) Unwrap() error {
	return e.Err
}

func NewLibrary(op string, err error) *LibraryError {
	return &LibraryError{Op: op, Err: err}
}
