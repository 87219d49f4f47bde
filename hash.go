package auxpow

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Hash256 is an opaque 32-byte hash. It is little-endian on the wire and in
// memory; String() prints the conventional big-endian (reversed) form.
type Hash256 [32]byte

func (h Hash256) String() string {
	for i := 0; i < 16; i++ {
		h[i], h[31-i] = h[31-i], h[i]
	}
	return hex.EncodeToString(h[:])
}

func (h Hash256) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// Reversed returns a copy of h with its bytes in reverse order. Used to
// convert a computed Merkle root into the byte order embedded in a
// coinbase scriptSig.
func (h Hash256) Reversed() Hash256 {
	var r Hash256
	for i := range h {
		r[i] = h[len(h)-1-i]
	}
	return r
}

func (h Hash256) IsZero() bool {
	return h == Hash256{}
}

func Hash256FromBytes(b []byte) (Hash256, error) {
	var h Hash256
	if len(b) != len(h) {
		return h, fmt.Errorf("auxpow: wrong hash length: %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// noBranchIndex is the sentinel leaf index meaning "no branch", per
// spec.md 4.1: FoldMerkleBranch returns the zero hash for it.
const noBranchIndex = 0xFFFFFFFF

// Hasher is the cryptographic primitive collaborator. The AuxPoW core
// only ever needs the double hash used to fold Merkle branches and hash
// transactions; the actual parent-chain proof-of-work hash (Equihash,
// Zhash, or the parent's own double-SHA256) is evaluated by the caller,
// never by this package.
type Hasher interface {
	Double(data []byte) Hash256
}

// DefaultHasher double-hashes with the same primitive Bitcoin-family
// parent chains use for their transaction and Merkle-tree hashing.
type DefaultHasher struct{}

func (DefaultHasher) Double(data []byte) Hash256 {
	return Hash256(chainhash.DoubleHashH(data))
}
