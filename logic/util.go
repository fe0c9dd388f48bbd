// Package logic holds the local user store, its change hooks, and the
// helpers the http handlers share.
package logic

import (
	crand "crypto/rand"
	"math/big"
	"strings"
)

// UnusablePasswordPrefix marks a password no hash check can match.
const UnusablePasswordPrefix = "!"

// GenerateCryptoString - generates random string of n length
func GenerateCryptoString(n int) (string, error) {
	const chars = "123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"
	ret := make([]byte, n)
	for i := range ret {
		num, err := crand.Int(crand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		ret[i] = chars[num.Int64()]
	}

	return string(ret), nil
}

// UnusablePassword returns a fresh sentinel for accounts whose
// credentials live with the identity provider.
func UnusablePassword() (string, error) {
	suffix, err := GenerateCryptoString(40)
	if err != nil {
		return "", err
	}
	return UnusablePasswordPrefix + suffix, nil
}

// IsUnusablePassword reports whether password is a sentinel.
func IsUnusablePassword(password string) bool {
	return strings.HasPrefix(password, UnusablePasswordPrefix)
}
