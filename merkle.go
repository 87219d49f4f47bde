package auxpow

import (
	"bytes"
	"io"
)

// MerkleBranch is an ordered sequence of sibling hashes, folded
// bottom-up to a Merkle root. The leaf index is not part of it; it is
// passed separately to FoldMerkleBranch.
type MerkleBranch []Hash256

func (mb *MerkleBranch) BinRead(r io.Reader) error {
	return readList(r, func(r io.Reader) error {
		var h Hash256
		if _, err := io.ReadFull(r, h[:]); err != nil {
			return err
		}
		*mb = append(*mb, h)
		return nil
	})
}

func (mb *MerkleBranch) BinWrite(w io.Writer) error {
	return writeList(w, len(*mb), func(w io.Writer, i int) error {
		_, err := w.Write((*mb)[i][:])
		return err
	})
}

// FoldMerkleBranch folds leaf up through branch using index to choose,
// at each level, which side of the concatenation the running hash sits
// on: bit 0 of index set means the sibling goes first. index is shifted
// right after each step. index == noBranchIndex is the "no branch"
// sentinel and folds to the zero hash. See spec.md 4.1.
func FoldMerkleBranch(hasher Hasher, leaf Hash256, branch MerkleBranch, index uint32) Hash256 {
	if index == noBranchIndex {
		return Hash256{}
	}

	acc := leaf
	for _, sibling := range branch {
		var buf bytes.Buffer
		if index&1 != 0 {
			buf.Write(sibling[:])
			buf.Write(acc[:])
		} else {
			buf.Write(acc[:])
			buf.Write(sibling[:])
		}
		acc = hasher.Double(buf.Bytes())
		index >>= 1
	}
	return acc
}
