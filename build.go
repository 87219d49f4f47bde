package auxpow

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ChildHeader is the minimal collaborator InitAuxPow needs from a
// child-chain block header: enough to compute its hash, flag it as
// AuxPoW-enabled, and attach the resulting AuxPow. Everything else about
// header/block construction is out of scope for this package (spec.md 1).
type ChildHeader interface {
	Hash() Hash256
	MarkAuxPowEnabled()
	SetAuxPow(*AuxPow)
}

// InitAuxPow synthesizes a minimal valid AuxPow skeleton for header and
// attaches it. The result satisfies Check(hasher, ap, header.Hash(),
// chainID, Params{StrictChainID: false}) for any chainID, since with
// height 0 the deterministic index collapses to 0 and the single-leaf
// fold is the identity (spec.md 8, property 1). It does not embed a
// valid parent proof-of-work solution — that is left for the caller, or
// for tests/genesis that never need one. See spec.md 4.4.
func InitAuxPow(hasher Hasher, header ChildHeader, version uint32, zhashConfig []byte) (*AuxPow, error) {
	parentKind, coinbaseKind, err := ParseVersion(version)
	if err != nil {
		return nil, err
	}

	header.MarkAuxPowEnabled()
	childHash := header.Hash()

	payload := buildCommitmentPayload(childHash)
	tx := newSkeletonCoinbase(coinbaseKind, payload)
	txHash := tx.Hash(hasher)

	ap := &AuxPow{
		Version: version,
		CoinbaseProof: &CoinbaseMerkleProof{
			Tx:           tx,
			Branch:       nil,
			Index:        0,
			CoinbaseKind: coinbaseKind,
		},
		Parent:            newSkeletonParent(parentKind, txHash),
		ChainMerkleBranch: nil,
		ChainIndex:        0,
	}

	if version&ZhashFlag != 0 {
		if len(zhashConfig) != ZhashConfigLen {
			return nil, fmt.Errorf("auxpow: zhash config must be %d bytes, got %d", ZhashConfigLen, len(zhashConfig))
		}
		ap.ZhashConfig = append([]byte(nil), zhashConfig...)
	}

	if err := ap.Validate(); err != nil {
		return nil, err
	}

	header.SetAuxPow(ap)
	return ap, nil
}

// buildCommitmentPayload builds reversed(childHash) || treeSize(1) ||
// nonce(0), the chain-Merkle commitment for a single-leaf (height 0)
// chain Merkle tree, legacy-positional (no magic header) per spec.md 4.4
// step 3.
func buildCommitmentPayload(childHash Hash256) []byte {
	reversed := childHash.Reversed()
	payload := make([]byte, 0, len(reversed)+8)
	payload = append(payload, reversed[:]...)
	payload = append(payload, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	return payload
}

// pushData pushdata-encodes data the way a Bitcoin-family scriptSig
// would (CScript's operator<<): a length-prefixed push for short data,
// OP_PUSHDATA1/2 for longer.
func pushData(data []byte) []byte {
	var buf bytes.Buffer
	switch {
	case len(data) < 0x4c:
		buf.WriteByte(byte(len(data)))
	case len(data) <= 0xff:
		buf.WriteByte(0x4c)
		buf.WriteByte(byte(len(data)))
	default:
		buf.WriteByte(0x4d)
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(data)))
		buf.Write(lenBuf[:])
	}
	buf.Write(data)
	return buf.Bytes()
}

func newSkeletonCoinbase(kind CoinbaseKind, payload []byte) CoinbaseTx {
	in := TxIn{
		PrevOut:   OutPoint{N: 0xFFFFFFFF},
		ScriptSig: pushData(payload),
		Sequence:  0xFFFFFFFF,
	}
	if kind == CoinbaseStake {
		return &StakeCoinbaseTx{Version: 1, TxIn: in}
	}
	return &StandardCoinbaseTx{Version: 1, TxIn: in}
}

// newSkeletonParent builds a synthetic parent block header whose
// transaction tree contains only the coinbase, so its Merkle root is
// simply the coinbase's hash.
func newSkeletonParent(kind ParentKind, coinbaseHash Hash256) ParentBlockHeader {
	if kind == ParentEquihash {
		return &EquihashParentHeader{Version: 1, MerkleRoot: coinbaseHash}
	}
	return &DefaultParentHeader{Version: 1, MerkleRoot: coinbaseHash}
}
