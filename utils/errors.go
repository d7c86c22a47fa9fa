package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

// NewConfigValidationError returns a config validation error
// occurring at a given path.
func NewConfigValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}

// NewConfigValidationFieldRequiredError returns a config validation
// error for a field missing at a given path.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return NewConfigValidationError(path, errors.Errorf("%q is required", field))
}

// NewConfigValidationFieldOutOfRangeError is used when a numeric field holds a value the
// planner cannot work with.
func NewConfigValidationFieldOutOfRangeError(path, field string, value interface{}, want string) error {
	return NewConfigValidationError(path, errors.Errorf("%q must be %s, got %s", field, want, fmt.Sprint(value)))
}
