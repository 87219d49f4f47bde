package auxpow

import (
	"bytes"
	"fmt"
	"io"
)

// AuxPow is the root entity: proof that a parent-chain block commits to
// a specific child-chain block hash. Immutable after construction; see
// spec.md 3 and 5.
type AuxPow struct {
	Version           uint32
	CoinbaseProof     *CoinbaseMerkleProof
	Parent            ParentBlockHeader
	ChainMerkleBranch MerkleBranch
	ChainIndex        uint32
	ZhashConfig       []byte // present iff ZhashFlag set; always 8 bytes
}

func newParentHeader(kind ParentKind) ParentBlockHeader {
	if kind == ParentEquihash {
		return &EquihashParentHeader{}
	}
	return &DefaultParentHeader{}
}

// Validate checks the structural invariants: proof and parent are both
// present, their variant tags agree with the version flags, and no
// Zhash config is carried without ZhashFlag. The coinbase index, the
// chain branch cap and the Zhash config length are not checked here;
// Check tests them as its own ordered steps. Deserialize, Serialize,
// InitAuxPow and Check all call this.
func (a *AuxPow) Validate() error {
	if a.CoinbaseProof == nil || a.Parent == nil {
		return fmt.Errorf("auxpow: incomplete AuxPow")
	}
	// Coinbase index must be 0 (the coinbase is always first in its
	// block), but like the branch-length cap below that is a consensus
	// check surfaced by Check's own ordered step (ReasonNotGenerate),
	// not a construction-time invariant.
	// Chain merkle branch length is capped, but that cap is a consensus
	// check surfaced by Check's own ordered step (ReasonBranchTooLong),
	// not a construction-time invariant: the original implementation
	// only rejects an oversized branch during check(), not at parse
	// time, so an over-length AuxPow deserializes fine and fails later
	// with the correctly-typed CheckError.

	parentKind, coinbaseKind, err := ParseVersion(a.Version)
	if err != nil {
		return err
	}
	if coinbaseKind != a.CoinbaseProof.CoinbaseKind {
		return fmt.Errorf("auxpow: coinbase variant does not match version flags")
	}
	switch a.Parent.(type) {
	case *EquihashParentHeader:
		if parentKind != ParentEquihash {
			return fmt.Errorf("auxpow: parent variant does not match version flags")
		}
	case *DefaultParentHeader:
		if parentKind != ParentDefault {
			return fmt.Errorf("auxpow: parent variant does not match version flags")
		}
	}

	if a.Version&ZhashFlag == 0 && len(a.ZhashConfig) != 0 {
		return fmt.Errorf("auxpow: zhash config set without ZHASH_FLAG")
	}
	// A present-but-wrong-length ZhashConfig is left for Check's own
	// ordered step (ReasonBadZhashConfig), for the same reason the
	// branch-length cap is: it is a consensus check, not a
	// construction-time invariant, so it must surface as a typed
	// CheckError rather than being pre-empted here.

	return nil
}

func (a *AuxPow) Deserialize(r io.Reader) error {
	if err := BinRead(&a.Version, r); err != nil {
		return err
	}

	parentKind, coinbaseKind, err := ParseVersion(a.Version)
	if err != nil {
		return err
	}

	a.CoinbaseProof = &CoinbaseMerkleProof{CoinbaseKind: coinbaseKind}
	if err := a.CoinbaseProof.BinRead(r); err != nil {
		return err
	}

	if err := BinRead(&a.ChainMerkleBranch, r); err != nil {
		return err
	}

	if err := BinRead(&a.ChainIndex, r); err != nil {
		return err
	}

	if a.Version&ZhashFlag != 0 {
		a.ZhashConfig = make([]byte, ZhashConfigLen)
		if _, err := io.ReadFull(r, a.ZhashConfig); err != nil {
			return err
		}
	}

	a.Parent = newParentHeader(parentKind)
	if err := a.Parent.BinRead(r); err != nil {
		return err
	}

	return a.Validate()
}

func (a *AuxPow) Serialize(w io.Writer) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := BinWrite(a.Version, w); err != nil {
		return err
	}
	if err := a.CoinbaseProof.BinWrite(w); err != nil {
		return err
	}
	if err := BinWrite(&a.ChainMerkleBranch, w); err != nil {
		return err
	}
	if err := BinWrite(a.ChainIndex, w); err != nil {
		return err
	}
	if a.Version&ZhashFlag != 0 {
		if _, err := w.Write(a.ZhashConfig); err != nil {
			return err
		}
	}
	return a.Parent.BinWrite(w)
}

func (a *AuxPow) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func AuxPowFromBytes(b []byte) (*AuxPow, error) {
	var a AuxPow
	if err := a.Deserialize(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return &a, nil
}
