package keyx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoRecord is returned by a KeyStore when nothing has been persisted yet.
	ErrNoRecord = errors.New("keyx: no stored key record")

	// ErrMalformedRecord is returned by a KeyStore when the stored data cannot
	// be decoded into a complete KeyRecord.
	ErrMalformedRecord = errors.New("keyx: malformed key record")

	// ErrPersist wraps failures to durably save a freshly derived record. The
	// in-memory record is still replaced when this is returned.
	ErrPersist = errors.New("keyx: failed to persist key record")
)

// KeyRecord is the rotating access key together with the instant it stops
// being valid. Records are replaced wholesale, never edited.
type KeyRecord struct {
	Key    string
	Expiry time.Time
}

// IsZero reports whether the record carries no key.
func (r KeyRecord) IsZero() bool { return r.Key == "" }

// ExpiredAt reports whether the record is no longer valid at t.
func (r KeyRecord) ExpiredAt(t time.Time) bool { return !t.Before(r.Expiry) }

// KeyStore is the minimal persistence capability the KeyManager needs. It
// holds a single logical slot. Implementations live under the gateway store
// drivers so this package stays free of storage dependencies.
type KeyStore interface {
	// Load returns the stored record, ErrNoRecord if the slot is empty, or
	// ErrMalformedRecord if the stored data cannot be decoded.
	Load(ctx context.Context) (KeyRecord, error)

	// Save replaces the stored record. A concurrent Load must never observe a
	// partially written record.
	Save(ctx context.Context, rec KeyRecord) error
}

// wireRecord is the persisted layout: exactly two string fields.
type wireRecord struct {
	Key    string `json:"key"`
	Expiry string `json:"expiry"`
}

// legacyLayouts are timestamp layouts written by earlier deployments that
// stored naive local timestamps without an offset. They are read as UTC.
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
}

// FormatExpiry renders an expiry in the persisted ISO-8601 form.
func FormatExpiry(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseExpiry parses a persisted expiry. RFC 3339 is preferred; naive
// timestamps from older deployments are accepted and interpreted as UTC.
func ParseExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty expiry", ErrMalformedRecord)
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unparseable expiry %q", ErrMalformedRecord, s)
}

// MarshalRecord encodes a record as the persisted JSON document.
func MarshalRecord(rec KeyRecord) ([]byte, error) {
	if rec.IsZero() {
		return nil, fmt.Errorf("%w: empty key", ErrMalformedRecord)
	}
	return json.Marshal(wireRecord{
		Key:    rec.Key,
		Expiry: FormatExpiry(rec.Expiry),
	})
}

// UnmarshalRecord decodes a persisted JSON document. Any structural problem
// (bad JSON, missing or empty fields, bad timestamp) yields an error wrapping
// ErrMalformedRecord.
func UnmarshalRecord(data []byte) (KeyRecord, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return KeyRecord{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return RecordFromFields(w.Key, w.Expiry)
}

// RecordFromFields builds a record from the two persisted string fields,
// validating both. Drivers that store the fields in separate columns use this
// instead of UnmarshalRecord.
func RecordFromFields(key, expiry string) (KeyRecord, error) {
	if strings.TrimSpace(key) == "" {
		return KeyRecord{}, fmt.Errorf("%w: empty key", ErrMalformedRecord)
	}

	exp, err := ParseExpiry(expiry)
	if err != nil {
		return KeyRecord{}, err
	}

	return KeyRecord{Key: key, Expiry: exp}, nil
}
