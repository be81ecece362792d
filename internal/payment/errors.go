package payment

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound       = errors.New("payment not found")
	ErrAlreadyExpired = errors.New("payment expired")
	ErrAlreadyPaid    = errors.New("payment already paid")

	// ErrStorage marks persistence failures. They are contained inside the
	// repository (logged, counted) and never abort an in-memory transition.
	ErrStorage = errors.New("storage failure")

	// ErrCodeGeneration marks failures of the code-generation collaborator.
	// No record is written when it fires.
	ErrCodeGeneration = errors.New("pix code generation failed")
)

// ValidationError reports a bad creation parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}
