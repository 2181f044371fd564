package memory

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// idLength is the number of hex characters in a generated identifier.
const idLength = 12

// newID generates an opaque identifier from a semantic seed, the current
// time, and a random component. The seed ties the id loosely to what it
// names; the uuid entropy makes collisions vanishingly unlikely without a
// centralized sequence and keeps identity decoupled from content.
func newID(seed string) string {
	h := sha256.Sum256([]byte(seed + "|" + Now() + "|" + uuid.NewString()))
	return hex.EncodeToString(h[:])[:idLength]
}
