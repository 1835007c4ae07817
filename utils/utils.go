package utils

import (
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ParseCourtNumbers splits a comma-separated court list ("1,2,5") into
// trimmed labels, dropping empties.
func ParseCourtNumbers(courts string) []string {
	parts := strings.Split(courts, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinCourtNumbers is the inverse of ParseCourtNumbers.
func JoinCourtNumbers(courts []string) string {
	return strings.Join(courts, ",")
}

// DefaultCourtLabel is the court assigned to a freshly formed group:
// its 1-based position in the event.
func DefaultCourtLabel(position int) string {
	return strconv.Itoa(position)
}
