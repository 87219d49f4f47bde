package auxpow

import "fmt"

// Version flag bits, ored together in AuxPow.Version. See spec.md 6.
const (
	EquihashFlag uint32 = 1 << 8
	ZhashFlag    uint32 = 1 << 9
	StakeFlag    uint32 = 1 << 10
)

// ChainMerkleBranchCap is the hard cap on the chain Merkle branch length
// (spec.md 3, invariant 2).
const ChainMerkleBranchCap = 30

// ZhashConfigLen is the required length of the Zhash personalization
// string when ZhashFlag is set (spec.md 3, invariant 3).
const ZhashConfigLen = 8

// ParentKind selects which of the two ParentBlockHeader variants an
// AuxPow carries.
type ParentKind int

const (
	ParentDefault ParentKind = iota
	ParentEquihash
)

// CoinbaseKind selects which of the two CoinbaseMerkleProof variants an
// AuxPow carries.
type CoinbaseKind int

const (
	CoinbaseStandard CoinbaseKind = iota
	CoinbaseStake
)

// ParseVersion validates a raw version field and returns the parent and
// coinbase variant tags it selects. Unlike the original implementation
// (which silently admits ZhashFlag without EquihashFlag), illegal flag
// combinations are rejected here at the boundary, per spec.md's Design
// Notes / REDESIGN FLAGS: Zhash is a personalization of the Equihash
// parent header, not an independent parent variant.
func ParseVersion(version uint32) (ParentKind, CoinbaseKind, error) {
	if version&ZhashFlag != 0 && version&EquihashFlag == 0 {
		return 0, 0, fmt.Errorf("auxpow: ZHASH_FLAG requires EQUIHASH_FLAG")
	}

	parent := ParentDefault
	if version&EquihashFlag != 0 {
		parent = ParentEquihash
	}

	coinbase := CoinbaseStandard
	if version&StakeFlag != 0 {
		coinbase = CoinbaseStake
	}

	return parent, coinbase, nil
}
