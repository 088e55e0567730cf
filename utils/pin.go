package utils

import (
	"fmt"

	"github.com/sethvargo/go-password/password"
)

// GeneratePIN returns a random 6-digit numeric PIN.
func GeneratePIN() (string, error) {
	pin, err := password.Generate(6, 6, 0, true, true)
	if err != nil {
		return "", fmt.Errorf("generate PIN: %w", err)
	}
	return pin, nil
}
