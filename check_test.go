package auxpow

import (
	"encoding/binary"
	"errors"
	"testing"
)

func asCheckError(t *testing.T, err error) *CheckError {
	t.Helper()
	var cerr *CheckError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a wrapped *CheckError, got %v (%T)", err, err)
	}
	return cerr
}

// testHeader is a minimal ChildHeader for tests.
type testHeader struct {
	hash      Hash256
	auxPow    *AuxPow
	auxpowSet bool
}

func (h *testHeader) Hash() Hash256        { return h.hash }
func (h *testHeader) MarkAuxPowEnabled()   { h.auxpowSet = true }
func (h *testHeader) SetAuxPow(a *AuxPow)  { h.auxPow = a }

func newTestHeader(seed byte) *testHeader {
	var h Hash256
	h[0] = seed
	h[1] = 0xaa
	return &testHeader{hash: h}
}

func TestInitAuxPowRoundTrip(t *testing.T) {
	versions := []uint32{
		0,
		EquihashFlag,
		EquihashFlag | ZhashFlag,
		StakeFlag,
		EquihashFlag | StakeFlag,
		EquihashFlag | ZhashFlag | StakeFlag,
	}

	hasher := DefaultHasher{}

	for _, version := range versions {
		header := newTestHeader(0x07)

		var zhashConfig []byte
		if version&ZhashFlag != 0 {
			zhashConfig = []byte("zhashcfg")
		}

		ap, err := InitAuxPow(hasher, header, version, zhashConfig)
		if err != nil {
			t.Fatalf("version %#x: InitAuxPow: %v", version, err)
		}

		err = Check(hasher, ap, header.Hash(), 0x0001, Params{StrictChainID: false})
		if err != nil {
			t.Errorf("version %#x: Check failed: %v", version, err)
		}

		if !header.auxpowSet {
			t.Errorf("version %#x: header was not marked AuxPoW-enabled", version)
		}
		if header.auxPow != ap {
			t.Errorf("version %#x: AuxPow not attached to header", version)
		}
	}
}

func TestCheckStrictChainIDRejectsSelfMerge(t *testing.T) {
	header := newTestHeader(0x01)
	ap, err := InitAuxPow(DefaultHasher{}, header, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	dp := ap.Parent.(*DefaultParentHeader)
	dp.Version = 0x0001 << 16 // parent chain id == 0x0001

	err = Check(DefaultHasher{}, ap, header.Hash(), 0x0001, Params{StrictChainID: true})
	cerr := asCheckError(t, err)
	if cerr.Reason != ReasonSameChainID {
		t.Fatalf("expected %s, got %s", ReasonSameChainID, cerr.Reason)
	}

	// Non-strict mode must not reject the same scenario.
	if err := Check(DefaultHasher{}, ap, header.Hash(), 0x0001, Params{StrictChainID: false}); err != nil {
		t.Fatalf("non-strict check should pass: %v", err)
	}
}

func TestCheckLegacyPositionalViolation(t *testing.T) {
	header := newTestHeader(0x02)
	ap, err := InitAuxPow(DefaultHasher{}, header, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	tx := ap.CoinbaseProof.Tx.(*StandardCoinbaseTx)
	filler := make([]byte, 24)
	tx.TxIn.ScriptSig = append(filler, tx.TxIn.ScriptSig...)

	// Changing the scriptSig changes the coinbase tx hash, so the
	// parent's recorded Merkle root must be recomputed to match, or
	// step 7 (bad Merkle root) would mask the positional violation
	// this test means to exercise.
	ap.Parent.(*DefaultParentHeader).MerkleRoot = tx.Hash(DefaultHasher{})

	err = Check(DefaultHasher{}, ap, header.Hash(), 0x0001, Params{StrictChainID: false})
	cerr := asCheckError(t, err)
	if cerr.Reason != ReasonRootNotInFirst20 {
		t.Fatalf("expected %s, got %s", ReasonRootNotInFirst20, cerr.Reason)
	}
}

func TestCheckMagicHeaderDisambiguation(t *testing.T) {
	childHash := Hash256{0x03}
	reversed := childHash.Reversed()

	payload := append([]byte{}, mmMagic[:]...)
	payload = append(payload, reversed[:]...)
	payload = append(payload, 1, 0, 0, 0, 0, 0, 0, 0) // size=1, nonce=0

	script := append(make([]byte, 50), payload...)

	tx := &StandardCoinbaseTx{
		Version: 1,
		TxIn:    TxIn{ScriptSig: pushData(script), PrevOut: OutPoint{N: 0xFFFFFFFF}},
	}
	txHash := tx.Hash(DefaultHasher{})

	ap := &AuxPow{
		Version: 0,
		CoinbaseProof: &CoinbaseMerkleProof{
			Tx: tx,
		},
		Parent: &DefaultParentHeader{Version: 1, MerkleRoot: txHash},
	}

	if err := Check(DefaultHasher{}, ap, childHash, 0x0001, Params{}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	// Append a second magic header anywhere after the first commitment.
	tx.TxIn.ScriptSig = append(tx.TxIn.ScriptSig, mmMagic[:]...)
	ap.Parent = &DefaultParentHeader{Version: 1, MerkleRoot: tx.Hash(DefaultHasher{})}

	err := Check(DefaultHasher{}, ap, childHash, 0x0001, Params{})
	cerr := asCheckError(t, err)
	if cerr.Reason != ReasonMultipleHeaders {
		t.Fatalf("expected %s, got %s", ReasonMultipleHeaders, cerr.Reason)
	}
}

func TestCheckWrongIndex(t *testing.T) {
	childHash := Hash256{0x04}
	sibling := Hash256{0x05}
	branch := MerkleBranch{sibling}

	// index 0: sibling is on the right: acc = Double(leaf||sibling)
	rootHash := FoldMerkleBranch(DefaultHasher{}, childHash, branch, 0)
	reversed := rootHash.Reversed()

	var nonce uint32
	for n := uint32(0); n < 1<<20; n++ {
		if ExpectedIndex(n, 0x0001, 1) == 1 {
			nonce = n
			break
		}
	}

	var nonceBytes [4]byte
	binary.LittleEndian.PutUint32(nonceBytes[:], nonce)

	payload := append([]byte{}, reversed[:]...)
	payload = append(payload, 2, 0, 0, 0) // treeSize = 2
	payload = append(payload, nonceBytes[:]...)

	tx := &StandardCoinbaseTx{
		Version: 1,
		TxIn:    TxIn{ScriptSig: pushData(payload), PrevOut: OutPoint{N: 0xFFFFFFFF}},
	}
	txHash := tx.Hash(DefaultHasher{})

	ap := &AuxPow{
		Version:           0,
		CoinbaseProof:     &CoinbaseMerkleProof{Tx: tx},
		Parent:            &DefaultParentHeader{Version: 1, MerkleRoot: txHash},
		ChainMerkleBranch: branch,
		ChainIndex:        0,
	}

	err := Check(DefaultHasher{}, ap, childHash, 0x0001, Params{})
	cerr := asCheckError(t, err)
	if cerr.Reason != ReasonWrongIndex {
		t.Fatalf("expected %s, got %s", ReasonWrongIndex, cerr.Reason)
	}
}

func TestCheckMerkleBranchCorruption(t *testing.T) {
	header := newTestHeader(0x06)
	ap, err := InitAuxPow(DefaultHasher{}, header, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	ap.CoinbaseProof.Branch = MerkleBranch{Hash256{0xff}}

	err = Check(DefaultHasher{}, ap, header.Hash(), 0x0001, Params{})
	cerr := asCheckError(t, err)
	if cerr.Reason != ReasonBadMerkleRoot {
		t.Fatalf("expected %s, got %s", ReasonBadMerkleRoot, cerr.Reason)
	}
}

func TestCheckBranchTooLong(t *testing.T) {
	header := newTestHeader(0x08)
	ap, err := InitAuxPow(DefaultHasher{}, header, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	branch := make(MerkleBranch, 31)
	ap.ChainMerkleBranch = branch

	err = Check(DefaultHasher{}, ap, header.Hash(), 0x0001, Params{})
	cerr := asCheckError(t, err)
	if cerr.Reason != ReasonBranchTooLong {
		t.Fatalf("expected %s, got %s", ReasonBranchTooLong, cerr.Reason)
	}
}

func TestFoldMerkleBranchIdentity(t *testing.T) {
	leaf := Hash256{0x09}
	got := FoldMerkleBranch(DefaultHasher{}, leaf, nil, 0)
	if got != leaf {
		t.Fatalf("FoldMerkleBranch(x, [], 0) = %v, want %v", got, leaf)
	}
}

func TestFoldMerkleBranchSentinel(t *testing.T) {
	leaf := Hash256{0x0a}
	got := FoldMerkleBranch(DefaultHasher{}, leaf, MerkleBranch{Hash256{0x0b}}, noBranchIndex)
	if !got.IsZero() {
		t.Fatalf("expected zero hash for sentinel index, got %v", got)
	}
}

func TestExpectedIndexDeterministic(t *testing.T) {
	a := ExpectedIndex(12345, 7, 10)
	b := ExpectedIndex(12345, 7, 10)
	if a != b {
		t.Fatalf("ExpectedIndex not deterministic: %d != %d", a, b)
	}
}

func TestParseVersionRejectsZhashWithoutEquihash(t *testing.T) {
	if _, _, err := ParseVersion(ZhashFlag); err == nil {
		t.Fatal("expected error for ZHASH_FLAG without EQUIHASH_FLAG")
	}
}
