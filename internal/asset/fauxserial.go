package asset

import (
	"crypto/rand"
	"fmt"

	"github.com/onyo-cli/onyo/internal/ierr"
)

const fauxAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// DefaultFauxSerialLength is the length of the random suffix appended after
// the "faux" prefix when the user omits the tail field.
const DefaultFauxSerialLength = 6

// DefaultFauxSerialAttempts bounds the number of collision retries before
// GenerateFauxSerial gives up.
const DefaultFauxSerialAttempts = 50

// GenerateFauxSerial returns a faux serial of the form "faux" + a random
// lowercase-alphanumeric suffix of the given length, retrying up to
// maxAttempts times whenever taken(candidate) reports a collision.
func GenerateFauxSerial(path string, length, maxAttempts int, taken func(serial string) bool) (string, error) {
	if length <= 0 {
		length = DefaultFauxSerialLength
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultFauxSerialAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		suffix, err := randomAlphanumeric(length)
		if err != nil {
			return "", fmt.Errorf("generate faux serial: %w", err)
		}
		candidate := "faux" + suffix
		if taken == nil || !taken(candidate) {
			return candidate, nil
		}
	}
	return "", &ierr.FauxSerialExhaustedError{Path: path, Attempts: maxAttempts}
}

func randomAlphanumeric(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = fauxAlphabet[int(b)%len(fauxAlphabet)]
	}
	return string(out), nil
}
