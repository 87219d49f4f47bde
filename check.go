package auxpow

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// mmMagic marks the start of the merged-mining commitment in a parent
// coinbase scriptSig (spec.md 6).
var mmMagic = [4]byte{0xFA, 0xBE, 0x6D, 0x6D}

// Params carries the consensus parameters Check needs beyond the
// AuxPow and the child hash/chain id themselves.
type Params struct {
	StrictChainID bool
}

// Check verifies that a carries a valid proof that the parent chain's
// miner committed to childHash for the given chainID. It is pure and
// single-threaded per call (spec.md 5): no I/O, no shared state, no
// mutation of a. On success it returns nil; on failure it returns an
// error wrapping a *CheckError identifying which of the ordered steps
// in spec.md 4.3 failed first — recover it with errors.As. An AuxPow
// that fails a.Validate() is rejected with Validate's plain error,
// which wraps no *CheckError. It never
// evaluates the parent block's own proof-of-work — that remains the
// caller's responsibility.
func Check(hasher Hasher, a *AuxPow, childHash Hash256, chainID int32, params Params) error {
	if err := a.Validate(); err != nil {
		return err
	}

	// 1. Same-chain-id guard.
	if params.StrictChainID && a.Parent.ChainID() == chainID {
		return newCheckError(ReasonSameChainID, "")
	}

	// 2. Coinbase index.
	if a.CoinbaseProof.Index != 0 {
		return newCheckError(ReasonNotGenerate, "")
	}

	// 3. Chain branch length.
	if len(a.ChainMerkleBranch) > ChainMerkleBranchCap {
		return newCheckError(ReasonBranchTooLong, fmt.Sprintf("length %d", len(a.ChainMerkleBranch)))
	}

	// 4. Zhash personalization well-formed.
	if a.Version&ZhashFlag != 0 && len(a.ZhashConfig) != ZhashConfigLen {
		return newCheckError(ReasonBadZhashConfig, fmt.Sprintf("length %d", len(a.ZhashConfig)))
	}

	// 5. Fold chain branch.
	rootHash := FoldMerkleBranch(hasher, childHash, a.ChainMerkleBranch, a.ChainIndex)

	// 6. Byte-reverse to match the coinbase script's byte order.
	rootBytes := rootHash.Reversed()

	// 7. Fold coinbase into the parent's transaction merkle root.
	txHash := a.CoinbaseProof.Tx.Hash(hasher)
	txRoot := FoldMerkleBranch(hasher, txHash, a.CoinbaseProof.Branch, a.CoinbaseProof.Index)
	if txRoot != a.Parent.MerkleRootHash() {
		return newCheckError(ReasonBadMerkleRoot, "")
	}

	// 8. Locate the commitment in the coinbase scriptSig.
	script := a.CoinbaseProof.Tx.ScriptSig()
	afterRoot, err := locateCommitment(script, rootBytes)
	if err != nil {
		return err
	}

	// 9. Read size and nonce.
	if len(script)-afterRoot < 8 {
		return newCheckError(ReasonMissingSizeAndNonce, "")
	}
	treeSize := binary.LittleEndian.Uint32(script[afterRoot : afterRoot+4])
	nonce := binary.LittleEndian.Uint32(script[afterRoot+4 : afterRoot+8])

	expectedSize := uint32(1) << uint(len(a.ChainMerkleBranch))
	if treeSize != expectedSize {
		return newCheckError(ReasonBadBranchSize, fmt.Sprintf("got %d want %d", treeSize, expectedSize))
	}

	// 10. Deterministic index check.
	expectedIdx := ExpectedIndex(nonce, chainID, uint(len(a.ChainMerkleBranch)))
	if a.ChainIndex != expectedIdx {
		return newCheckError(ReasonWrongIndex, fmt.Sprintf("got %d want %d", a.ChainIndex, expectedIdx))
	}

	return nil
}

// locateCommitment searches script for rootBytes and, per spec.md 4.3
// step 8, either the magic-header path (rootBytes must sit immediately
// after a single occurrence of mmMagic) or the legacy path (rootBytes
// must start within the first 20 bytes when no magic header is
// present). It returns the offset in script immediately following the
// matched rootBytes.
func locateCommitment(script []byte, rootBytes Hash256) (int, error) {
	rootIdx := bytes.Index(script, rootBytes[:])
	if rootIdx == -1 {
		return 0, newCheckError(ReasonMissingRoot, "")
	}

	headIdx := bytes.Index(script, mmMagic[:])
	if headIdx != -1 {
		if second := bytes.Index(script[headIdx+1:], mmMagic[:]); second != -1 {
			return 0, newCheckError(ReasonMultipleHeaders, "")
		}
		if headIdx+len(mmMagic) != rootIdx {
			return 0, newCheckError(ReasonHeaderNotAdjacent, "")
		}
	} else if rootIdx > 20 {
		return 0, newCheckError(ReasonRootNotInFirst20, "")
	}

	return rootIdx + len(rootBytes), nil
}
