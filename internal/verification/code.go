// Package verification issues and checks the one-time codes that prove
// control of an email address before an account is created.
package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	// MinCode and MaxCode bound the six digit code space
	MinCode = 100000
	MaxCode = 999999

	// DefaultCodeTTL is how long a freshly issued code stays usable
	DefaultCodeTTL = 10 * time.Minute
)

var codeSpace = big.NewInt(MaxCode - MinCode + 1)

// GenerateCode returns a uniformly distributed code in [MinCode, MaxCode]
// drawn from the operating system CSPRNG.
func GenerateCode() (int, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return 0, fmt.Errorf("failed to generate verification code: %w", err)
	}
	return MinCode + int(n.Int64()), nil
}

// GenerateExpiration returns the expiration instant of a code issued at now,
// truncated to the precision PostgreSQL stores. A non-positive ttl falls back
// to DefaultCodeTTL.
func GenerateExpiration(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return now.UTC().Add(ttl).Truncate(time.Microsecond)
}
