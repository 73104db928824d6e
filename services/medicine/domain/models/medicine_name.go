package models

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ghuser/medshelf/services/medicine/domain"
)

// MedicineName is a trimmed, non-empty display name of at most 255 characters.
type MedicineName string

const maxMedicineNameLength = 255

// NewMedicineName trims s and validates it.
func NewMedicineName(s string) (MedicineName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.Invalid("name", "name is required")
	}
	if utf8.RuneCountInString(s) > maxMedicineNameLength {
		return "", domain.Invalid("name", "name must not exceed 255 characters")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", domain.Invalid("name", "name must not contain control characters")
		}
	}
	return MedicineName(s), nil
}

func (n MedicineName) String() string {
	return string(n)
}
