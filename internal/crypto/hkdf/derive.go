// Key derivation for Primus authenticators
package hkdf

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"servus/internal/crypto"
	"servus/internal/global"

	"golang.org/x/crypto/hkdf"
)

// Derives keySize bytes from a high entropy secret and salt, namespaced by info.
// Secret and salt are zeroed afterwards.
func DeriveKey(secret, salt []byte, namespace string, keySize int) (secureKey []byte, err error) {
	deriver := hkdf.New(sha512.New, secret, salt, []byte(namespace))

	secureKey = make([]byte, keySize)
	_, err = deriver.Read(secureKey)
	crypto.Memzero(salt)
	crypto.Memzero(secret)
	if err != nil {
		err = fmt.Errorf("failed to populate key with secure bytes: %w", err)
		return
	}
	return
}

// Turns a base64 seed into the Authenticator header value for this host.
// The host name salts the derivation so one seed serves several gateways.
func DeriveAuthenticator(seedB64 string, hostname string) (authenticator string, err error) {
	seed, err := base64.StdEncoding.DecodeString(seedB64)
	if err != nil {
		err = fmt.Errorf("invalid authenticator seed: %v", err)
		return
	}
	if len(seed) < 16 {
		err = fmt.Errorf("authenticator seed too short: %d bytes (need at least 16)", len(seed))
		return
	}

	key, err := DeriveKey(seed, []byte(hostname), global.AuthenticatorDerivationContext, global.AuthenticatorDerivedLen)
	if err != nil {
		return
	}
	authenticator = base64.RawURLEncoding.EncodeToString(key)
	crypto.Memzero(key)
	return
}
