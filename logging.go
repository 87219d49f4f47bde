package auxpow

import "github.com/btcsuite/btclog"

// Log is the package-level logger. It defaults to a disabled backend;
// callers that want AuxPoW package-level diagnostics (store, cmd/*)
// call UseLogger to wire in their own backend, the same pattern
// btcnode/log.go uses for btcsuite/btcd/peer.
var Log = btclog.Disabled

// UseLogger sets the package-level logger used by store and cmd/*.
func UseLogger(logger btclog.Logger) {
	Log = logger
}
