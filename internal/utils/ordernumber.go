package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

// GenerateOrderNumber builds a 16-digit order number: a 12-digit
// minute-resolution timestamp followed by 4 random digits. Collisions within
// the same minute are rare; callers retry with a fresh suffix on a unique
// constraint violation.
func GenerateOrderNumber(now time.Time) (string, error) {
	var sb strings.Builder
	sb.WriteString(now.Format("200601021504"))
	for i := 0; i < 4; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteString(n.String())
	}
	return sb.String(), nil
}
