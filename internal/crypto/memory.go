// Secret handling helpers
package crypto

// Overwrites the slice with zeros
func Memzero(secret []byte) {
	for i := range secret {
		secret[i] = 0
	}
}
