package auxpow

import "github.com/pkg/errors"

// Reason identifies which of check's ordered validation steps failed.
// Check's errors carry a stack via github.com/pkg/errors, the same as
// kaspad's RuleError constructors, so recovering the Reason takes
// errors.As(err, &cerr) rather than a direct type assertion; callers
// decide, per spec.md 7, whether the failure invalidates the child
// block, downgrades a peer, or is merely logged.
type Reason string

const (
	ReasonSameChainID         Reason = "ErrSameChainID"
	ReasonNotGenerate         Reason = "ErrNotGenerate"
	ReasonBranchTooLong       Reason = "ErrChainMerkleBranchTooLong"
	ReasonBadZhashConfig      Reason = "ErrBadZhashConfig"
	ReasonBadMerkleRoot       Reason = "ErrBadMerkleRoot"
	ReasonMissingRoot         Reason = "ErrMissingChainMerkleRoot"
	ReasonMultipleHeaders     Reason = "ErrMultipleMergedMiningHeaders"
	ReasonHeaderNotAdjacent   Reason = "ErrMergedMiningHeaderNotAdjacent"
	ReasonRootNotInFirst20    Reason = "ErrChainMerkleRootNotInFirst20Bytes"
	ReasonMissingSizeAndNonce Reason = "ErrMissingChainMerkleSizeAndNonce"
	ReasonBadBranchSize       Reason = "ErrChainMerkleBranchSizeMismatch"
	ReasonWrongIndex          Reason = "ErrWrongChainIndex"
)

var reasonMessages = map[Reason]string{
	ReasonSameChainID:         "Aux POW parent has our chain ID",
	ReasonNotGenerate:         "AuxPow is not a generate",
	ReasonBranchTooLong:       "Aux POW chain merkle branch too long",
	ReasonBadZhashConfig:      "Aux POW Zhash personalization string size has wrong size.",
	ReasonBadMerkleRoot:       "Aux POW merkle root incorrect",
	ReasonMissingRoot:         "Aux POW missing chain merkle root in parent coinbase",
	ReasonMultipleHeaders:     "Multiple merged mining headers in coinbase",
	ReasonHeaderNotAdjacent:   "Merged mining header is not just before chain merkle root",
	ReasonRootNotInFirst20:    "Aux POW chain merkle root must start in the first 20 bytes of the parent coinbase",
	ReasonMissingSizeAndNonce: "Aux POW missing chain merkle tree size and nonce in parent coinbase",
	ReasonBadBranchSize:       "Aux POW merkle branch size does not match parent coinbase",
	ReasonWrongIndex:          "Aux POW wrong index",
}

// CheckError is the failure variant check returns: a Reason plus
// optional diagnostic context. It satisfies the error interface so it
// composes with github.com/pkg/errors-style wrapping at call sites that
// want to add stack context.
type CheckError struct {
	Reason  Reason
	Context string
}

func (e *CheckError) Error() string {
	msg := reasonMessages[e.Reason]
	if e.Context == "" {
		return msg
	}
	return msg + ": " + e.Context
}

func newCheckError(reason Reason, context string) error {
	return errors.WithStack(&CheckError{Reason: reason, Context: context})
}
