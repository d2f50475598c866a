package generator

import (
	"crypto/rand"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// bytes at or above this value are rejected so every symbol stays equally likely
const maxUnbiased = 256 - 256%len(alphabet)

// SessionTokenLength symbols of a 62-letter alphabet carry about 261 bits.
const SessionTokenLength = 44

func GenerateRandomID(length int) (string, error) {
	result := make([]byte, 0, length)
	buf := make([]byte, length)

	for len(result) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			result = append(result, alphabet[int(b)%len(alphabet)])
			if len(result) == length {
				break
			}
		}
	}

	return string(result), nil
}

// NewSessionToken returns an opaque, unguessable session cookie value.
func NewSessionToken() (string, error) {
	return GenerateRandomID(SessionTokenLength)
}
