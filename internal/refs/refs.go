// Package refs generates the human-readable reference numbers assigned to
// reservations, transports, devis, and accompaniment requests at creation.
//
// The format is "{PREFIX}-{millisecond epoch}-{8 uppercase base36 chars}",
// e.g. "RES-1717459200123-K3J9XQ2M". References are business identifiers,
// distinct from the UUID primary keys, and must stay stable once persisted.
package refs

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Known prefixes. New entity kinds add a constant here so the format stays
// discoverable in one place.
const (
	PrefixReservation    = "RES"
	PrefixTransport      = "TRANS"
	PrefixDevis          = "DEVIS"
	PrefixAccompagnement = "ACCOM"
)

const (
	suffixLen      = 8
	base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// New returns a fresh reference for the given prefix. The millisecond
// timestamp plus a random 8-character base36 suffix is collision-resistant
// for business volumes; uniqueness is additionally backed by the unique
// index on every reference column.
func New(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), randomSuffix())
}

// randomSuffix draws suffixLen characters from the base36 alphabet using
// crypto/rand so concurrent generators cannot share a PRNG sequence.
func randomSuffix() string {
	var b strings.Builder
	b.Grow(suffixLen)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < suffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is
			// broken; fall back to a time-derived index rather than panic.
			n = big.NewInt(time.Now().UnixNano() % int64(len(base36Alphabet)))
		}
		b.WriteByte(base36Alphabet[n.Int64()])
	}
	return b.String()
}
