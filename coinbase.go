package auxpow

import (
	"bytes"
	"io"
)

// OutPoint identifies a previous transaction output. A coinbase input's
// OutPoint is always null (zero hash, index 0xFFFFFFFF).
type OutPoint struct {
	Hash Hash256
	N    uint32
}

func (o *OutPoint) BinRead(r io.Reader) error {
	if _, err := io.ReadFull(r, o.Hash[:]); err != nil {
		return err
	}
	return BinRead(&o.N, r)
}

func (o *OutPoint) BinWrite(w io.Writer) error {
	if _, err := w.Write(o.Hash[:]); err != nil {
		return err
	}
	return BinWrite(o.N, w)
}

// TxIn is a transaction input. For a coinbase transaction there is
// exactly one, and ScriptSig is arbitrary miner-chosen bytes rather than
// a redeem script (spec.md 9, "byte-level script scanning").
type TxIn struct {
	PrevOut   OutPoint
	ScriptSig []byte
	Sequence  uint32
}

func (tin *TxIn) BinRead(r io.Reader) (err error) {
	if err = BinRead(&tin.PrevOut, r); err != nil {
		return err
	}
	if tin.ScriptSig, err = readString(r); err != nil {
		return err
	}
	return BinRead(&tin.Sequence, r)
}

func (tin *TxIn) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(&tin.PrevOut, w); err != nil {
		return err
	}
	if err = writeString(tin.ScriptSig, w); err != nil {
		return err
	}
	return BinWrite(tin.Sequence, w)
}

// TxOut is a transaction output.
type TxOut struct {
	Value        int64
	ScriptPubKey []byte
}

func (tout *TxOut) BinRead(r io.Reader) (err error) {
	if err = BinRead(&tout.Value, r); err != nil {
		return err
	}
	tout.ScriptPubKey, err = readString(r)
	return err
}

func (tout *TxOut) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(tout.Value, w); err != nil {
		return err
	}
	return writeString(tout.ScriptPubKey, w)
}

type TxOutList []*TxOut

func (touts *TxOutList) BinRead(r io.Reader) error {
	return readList(r, func(r io.Reader) error {
		var tout TxOut
		if err := BinRead(&tout, r); err != nil {
			return err
		}
		*touts = append(*touts, &tout)
		return nil
	})
}

func (touts *TxOutList) BinWrite(w io.Writer) error {
	return writeList(w, len(*touts), func(w io.Writer, i int) error {
		return BinWrite((*touts)[i], w)
	})
}

// CoinbaseTx is the parent block's first transaction, in one of two
// shapes selected by AuxPow.Version's STAKE_FLAG (spec.md 3). The
// verifier only ever needs the hash of the whole transaction and the
// scriptSig of input 0; the two variants differ only in the fields the
// stake variant carries for its own chain's purposes.
type CoinbaseTx interface {
	Hash(Hasher) Hash256
	ScriptSig() []byte
	BinRead(io.Reader) error
	BinWrite(io.Writer) error
}

// StandardCoinbaseTx is a plain UTXO-style coinbase transaction.
type StandardCoinbaseTx struct {
	Version  uint32
	TxIn     TxIn
	TxOuts   TxOutList
	LockTime uint32
}

func (tx *StandardCoinbaseTx) ScriptSig() []byte { return tx.TxIn.ScriptSig }

func (tx *StandardCoinbaseTx) Hash(h Hasher) Hash256 {
	var buf bytes.Buffer
	tx.binWrite(&buf)
	return h.Double(buf.Bytes())
}

func (tx *StandardCoinbaseTx) binWrite(w io.Writer) error {
	if err := BinWrite(tx.Version, w); err != nil {
		return err
	}
	if err := BinWrite(&tx.TxIn, w); err != nil {
		return err
	}
	if err := BinWrite(&tx.TxOuts, w); err != nil {
		return err
	}
	return BinWrite(tx.LockTime, w)
}

func (tx *StandardCoinbaseTx) BinWrite(w io.Writer) error { return tx.binWrite(w) }

func (tx *StandardCoinbaseTx) BinRead(r io.Reader) (err error) {
	if err = BinRead(&tx.Version, r); err != nil {
		return err
	}
	if err = BinRead(&tx.TxIn, r); err != nil {
		return err
	}
	if err = BinRead(&tx.TxOuts, r); err != nil {
		return err
	}
	return BinRead(&tx.LockTime, r)
}

// StakeCoinbaseTx is the PoS-style coinbase carried by parent chains
// that use a stake-weighted coinbase transaction. It admits a leading
// Time field the standard variant does not have; the verifier ignores
// it entirely (spec.md 3: "the verifier consumes only scriptSig of
// input 0 plus the transaction hash").
type StakeCoinbaseTx struct {
	Time     uint32
	Version  uint32
	TxIn     TxIn
	TxOuts   TxOutList
	LockTime uint32
}

func (tx *StakeCoinbaseTx) ScriptSig() []byte { return tx.TxIn.ScriptSig }

func (tx *StakeCoinbaseTx) Hash(h Hasher) Hash256 {
	var buf bytes.Buffer
	tx.binWrite(&buf)
	return h.Double(buf.Bytes())
}

func (tx *StakeCoinbaseTx) binWrite(w io.Writer) error {
	if err := BinWrite(tx.Time, w); err != nil {
		return err
	}
	if err := BinWrite(tx.Version, w); err != nil {
		return err
	}
	if err := BinWrite(&tx.TxIn, w); err != nil {
		return err
	}
	if err := BinWrite(&tx.TxOuts, w); err != nil {
		return err
	}
	return BinWrite(tx.LockTime, w)
}

func (tx *StakeCoinbaseTx) BinWrite(w io.Writer) error { return tx.binWrite(w) }

func (tx *StakeCoinbaseTx) BinRead(r io.Reader) (err error) {
	if err = BinRead(&tx.Time, r); err != nil {
		return err
	}
	if err = BinRead(&tx.Version, r); err != nil {
		return err
	}
	if err = BinRead(&tx.TxIn, r); err != nil {
		return err
	}
	if err = BinRead(&tx.TxOuts, r); err != nil {
		return err
	}
	return BinRead(&tx.LockTime, r)
}

// CoinbaseMerkleProof bundles a parent coinbase transaction with the
// Merkle branch proving it belongs to the parent block's transaction
// tree. Index must always be 0: the coinbase is always the first
// transaction (spec.md 3, invariant 1).
type CoinbaseMerkleProof struct {
	Tx           CoinbaseTx
	ParentHash   Hash256
	Branch       MerkleBranch
	Index        uint32
	CoinbaseKind CoinbaseKind
}

func (p *CoinbaseMerkleProof) newTx() CoinbaseTx {
	if p.CoinbaseKind == CoinbaseStake {
		return &StakeCoinbaseTx{}
	}
	return &StandardCoinbaseTx{}
}

func (p *CoinbaseMerkleProof) BinRead(r io.Reader) (err error) {
	p.Tx = p.newTx()
	if err = p.Tx.BinRead(r); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, p.ParentHash[:]); err != nil {
		return err
	}
	if err = BinRead(&p.Branch, r); err != nil {
		return err
	}
	return BinRead(&p.Index, r)
}

func (p *CoinbaseMerkleProof) BinWrite(w io.Writer) (err error) {
	if err = p.Tx.BinWrite(w); err != nil {
		return err
	}
	if _, err = w.Write(p.ParentHash[:]); err != nil {
		return err
	}
	if err = BinWrite(&p.Branch, w); err != nil {
		return err
	}
	return BinWrite(p.Index, w)
}
