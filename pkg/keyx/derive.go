package keyx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// KeyPrefix tags every derived key.
	KeyPrefix = "sk-"

	// KeyHexLength is how many hex characters of the digest are kept.
	KeyHexLength = 16

	// Validity is how long a derived record stays valid.
	Validity = 7 * 24 * time.Hour
)

// Week identifies an ISO-8601 week: Monday-start weeks where week 1 is the
// week containing the year's first Thursday.
type Week struct {
	Year int
	Week int
}

// WeekOf returns the ISO week t falls in, evaluated in t's location.
func WeekOf(t time.Time) Week {
	y, w := t.ISOWeek()
	return Week{Year: y, Week: w}
}

// String returns the canonical "<year>-<week>" form used as key material.
// The week is not zero padded.
func (w Week) String() string {
	return fmt.Sprintf("%d-%d", w.Year, w.Week)
}

// Derive computes the access key for the ISO week containing now.
//
// Any replica holding the same secret and agreeing on the clock derives the
// same key independently, so no coordination between instances is needed.
func Derive(now time.Time, secret string) KeyRecord {
	sum := sha256.Sum256([]byte(WeekOf(now).String() + secret))
	digest := hex.EncodeToString(sum[:])

	return KeyRecord{
		Key:    KeyPrefix + digest[:KeyHexLength],
		Expiry: now.Add(Validity),
	}
}
