package utils

import (
	"strings"

	"github.com/google/uuid"
)

// CreateToken returns an opaque random token made of two v4 UUIDs.
func CreateToken() string {
	first, err := uuid.NewRandom()
	if err != nil {
		return ""
	}

	second, err := uuid.NewRandom()
	if err != nil {
		return ""
	}

	return strings.ReplaceAll(first.String()+second.String(), "-", "")
}
