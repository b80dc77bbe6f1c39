package queueing

import (
	"errors"
	"fmt"

	"github.com/guimove/queuefit/internal/model"
)

// Error kinds. Match with errors.Is.
var (
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrInstability          = errors.New("unstable system")
	ErrNumericalInstability = errors.New("numerical instability")
)

// Error is returned by every failed evaluation. No partial result accompanies it.
type Error struct {
	Kind    error
	Model   model.Kind
	Message string
}

func (e *Error) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %v: %s", e.Model.Notation(), e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

func invalid(k model.Kind, format string, args ...any) error {
	return &Error{Kind: ErrInvalidParameter, Model: k, Message: fmt.Sprintf(format, args...)}
}

func unstable(k model.Kind, format string, args ...any) error {
	return &Error{Kind: ErrInstability, Model: k, Message: fmt.Sprintf(format, args...)}
}

func numerical(k model.Kind, format string, args ...any) error {
	return &Error{Kind: ErrNumericalInstability, Model: k, Message: fmt.Sprintf(format, args...)}
}

// KindOf names the error kind of err, or "error" for foreign errors.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidParameter):
		return "InvalidParameterError"
	case errors.Is(err, ErrNumericalInstability):
		return "NumericalInstabilityError"
	case errors.Is(err, ErrInstability):
		return "InstabilityError"
	}
	return "error"
}
