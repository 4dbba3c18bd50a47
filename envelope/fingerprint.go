package envelope

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/Neumenon/xmlserial/value"
)

// Fingerprint is the BLAKE3-256 hash of a graph's CBOR envelope. Core
// deterministic encoding makes it a stable content hash: a graph keeps its
// fingerprint through either envelope format and through markup.
type Fingerprint [32]byte

// String returns the fingerprint as lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// ParseFingerprint parses a 64-character hex fingerprint.
func ParseFingerprint(s string) (Fingerprint, bool) {
	var f Fingerprint
	if len(s) != hex.EncodedLen(len(f)) {
		return f, false
	}
	if _, err := hex.Decode(f[:], []byte(s)); err != nil {
		return f, false
	}
	return f, true
}

var fingerprintCodec = New(WithFormat(CBOR))

// FingerprintOf hashes the CBOR envelope of v.
func FingerprintOf(v *value.Value) (Fingerprint, error) {
	data, err := fingerprintCodec.Marshal(v)
	if err != nil {
		return Fingerprint{}, err
	}
	return blake3.Sum256(data), nil
}
