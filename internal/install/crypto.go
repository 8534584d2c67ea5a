package install

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const seedLength int = 32

// Random base64 seed for the authenticatorSeed setting
func GenerateSeed() (seed string, err error) {
	raw := make([]byte, seedLength)
	_, err = rand.Read(raw)
	if err != nil {
		err = fmt.Errorf("failed to read random bytes: %w", err)
		return
	}
	seed = base64.StdEncoding.EncodeToString(raw)
	return
}
