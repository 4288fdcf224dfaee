package password

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// NoLoginSentinel is stored instead of a digest for accounts that must not
// authenticate by password. It is not a possible output of Digest, so
// comparison against it always fails.
const NoLoginSentinel = "CanNotLoginByPassword"

const saltLayout = "20060102150405"

// Digest derives the stored form of a plaintext password. The salt is the
// account's creation instant rendered as a fixed-width timestamp, which makes
// the digest deterministic per account and distinct across accounts created
// at different instants.
func Digest(plain string, createdAt time.Time) string {
	salt := createdAt.Format(saltLayout)
	h1 := hash(plain)
	h2 := hash(salt + h1)
	return hash(h2 + salt)
}

// Verify recomputes the digest and compares it byte for byte against the
// stored one. The sentinel never verifies.
func Verify(plain string, createdAt time.Time, stored string) bool {
	if stored == NoLoginSentinel {
		return false
	}
	return Digest(plain, createdAt) == stored
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
