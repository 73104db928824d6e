package domain

import "errors"

// Sentinel errors for the medicine domain. Use errors.Is() to check these.
var (
	// ErrMedicineNotFound indicates no record exists with the requested id.
	ErrMedicineNotFound = errors.New("medicine not found")

	// ErrNoFieldsToUpdate indicates a partial update that names none of the mutable fields.
	ErrNoFieldsToUpdate = errors.New("no fields to update")

	// ErrInvalidMedicine is matched by every ValidationError.
	ErrInvalidMedicine = errors.New("invalid medicine")
)

// ValidationError reports a single invalid field. Its message is shown to
// API callers as-is, e.g. "name is required".
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidMedicine }

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
