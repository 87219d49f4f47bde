package auxpow

import "io"

// ParentBlockHeader is the parent chain's block header, in one of two
// variants (spec.md 3). check only ever reads Version and MerkleRoot;
// the remaining fields (Nonce, Bits, PrevHash, Time, Solution) exist so
// a caller can separately evaluate the parent's own proof-of-work
// (spec.md 1, "out of scope (external collaborators)").
type ParentBlockHeader interface {
	ChainID() int32
	MerkleRootHash() Hash256
	BinRead(io.Reader) error
	BinWrite(io.Writer) error
}

// chainIDFromVersion extracts the parent chain's id from the upper 16 bits of a
// raw version field, per the parent-chain convention (spec.md 4.3 step 1).
func chainIDFromVersion(version uint32) int32 {
	return int32(version >> 16)
}

// DefaultParentHeader is a plain SHA256d-PoW parent block header.
type DefaultParentHeader struct {
	Version    uint32
	PrevHash   Hash256
	MerkleRoot Hash256
	Time       uint32
	Bits       uint32
	Nonce      uint32
}

func (h *DefaultParentHeader) ChainID() int32          { return chainIDFromVersion(h.Version) }
func (h *DefaultParentHeader) MerkleRootHash() Hash256 { return h.MerkleRoot }

func (h *DefaultParentHeader) BinRead(r io.Reader) (err error) {
	if err = BinRead(&h.Version, r); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, h.PrevHash[:]); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return err
	}
	if err = BinRead(&h.Time, r); err != nil {
		return err
	}
	if err = BinRead(&h.Bits, r); err != nil {
		return err
	}
	return BinRead(&h.Nonce, r)
}

func (h *DefaultParentHeader) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(h.Version, w); err != nil {
		return err
	}
	if _, err = w.Write(h.PrevHash[:]); err != nil {
		return err
	}
	if _, err = w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	if err = BinWrite(h.Time, w); err != nil {
		return err
	}
	if err = BinWrite(h.Bits, w); err != nil {
		return err
	}
	return BinWrite(h.Nonce, w)
}

// EquihashParentHeader is a parent block header using the Equihash (or,
// with AuxPow.ZhashConfig set, Zhash) proof-of-work, carrying the extra
// solution field those algorithms require. Unused by check, same as the
// default variant's Nonce/Bits/Time/PrevHash.
type EquihashParentHeader struct {
	Version    uint32
	PrevHash   Hash256
	MerkleRoot Hash256
	Time       uint32
	Bits       uint32
	Nonce      Hash256 // Equihash nonces are 256-bit
	Solution   []byte
}

func (h *EquihashParentHeader) ChainID() int32          { return chainIDFromVersion(h.Version) }
func (h *EquihashParentHeader) MerkleRootHash() Hash256 { return h.MerkleRoot }

func (h *EquihashParentHeader) BinRead(r io.Reader) (err error) {
	if err = BinRead(&h.Version, r); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, h.PrevHash[:]); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return err
	}
	if err = BinRead(&h.Time, r); err != nil {
		return err
	}
	if err = BinRead(&h.Bits, r); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, h.Nonce[:]); err != nil {
		return err
	}
	h.Solution, err = readString(r)
	return err
}

func (h *EquihashParentHeader) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(h.Version, w); err != nil {
		return err
	}
	if _, err = w.Write(h.PrevHash[:]); err != nil {
		return err
	}
	if _, err = w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	if err = BinWrite(h.Time, w); err != nil {
		return err
	}
	if err = BinWrite(h.Bits, w); err != nil {
		return err
	}
	if _, err = w.Write(h.Nonce[:]); err != nil {
		return err
	}
	return writeString(h.Solution, w)
}
