// Command auxpowcheck reads a serialized AuxPow plus a child block
// hash and chain id, runs auxpow.Check against them, and reports the
// result. It follows cmd/import/import.go's plain-flag CLI shape and
// log.Fatalf error style, and optionally records the outcome through
// store.Writer and memoizes it through verifycache.Cache the way
// import.go wires db.PGWriter into its own scan loop.
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/btcsuite/btclog"

	"github.com/blkchain/auxpow"
	"github.com/blkchain/auxpow/store"
	"github.com/blkchain/auxpow/verifycache"
)

func main() {
	auxPowHex := flag.String("auxpow", "", "hex-encoded serialized AuxPow")
	childHashHex := flag.String("childhash", "", "big-endian hex child block hash")
	chainID := flag.Int("chainid", 0, "child chain id")
	strict := flag.Bool("strict", false, "reject AuxPow whose parent chain id equals -chainid")
	connStr := flag.String("connstr", "", "Postgres connection string for outcome storage; empty disables storage")
	cachePath := flag.String("cache", "", "goleveldb verify-cache path; empty disables the cache")
	cacheHotSize := flag.Int("cache-hot-size", 10_000, "entries kept in the verify-cache's in-memory hot tier")

	flag.Parse()
	auxpow.UseLogger(btclog.NewBackend(os.Stderr).Logger("CHCK"))

	if *auxPowHex == "" {
		log.Fatalf("-auxpow required")
	}
	if *childHashHex == "" {
		log.Fatalf("-childhash required")
	}

	raw, err := hex.DecodeString(*auxPowHex)
	if err != nil {
		log.Fatalf("bad -auxpow hex: %v", err)
	}

	childHashBytes, err := hex.DecodeString(*childHashHex)
	if err != nil {
		log.Fatalf("bad -childhash hex: %v", err)
	}
	childHash, err := auxpow.Hash256FromBytes(reverse(childHashBytes))
	if err != nil {
		log.Fatalf("bad -childhash: %v", err)
	}

	ap, err := auxpow.AuxPowFromBytes(raw)
	if err != nil {
		log.Fatalf("deserialize AuxPow: %v", err)
	}

	var cache *verifycache.Cache
	if *cachePath != "" {
		cache, err = verifycache.Open(*cachePath, *cacheHotSize)
		if err != nil {
			log.Fatalf("open verify-cache: %v", err)
		}
		defer cache.Close()

		if e, ok := cache.Get(childHash, int32(*chainID)); ok {
			reportCached(e)
			return
		}
	}

	var writer *store.Writer
	if *connStr != "" {
		writer, err = store.NewWriter(*connStr)
		if err != nil {
			log.Fatalf("open outcome store: %v", err)
		}
		defer writer.Close()
	}

	hasher := auxpow.DefaultHasher{}
	params := auxpow.Params{StrictChainID: *strict}

	checkErr := auxpow.Check(hasher, ap, childHash, int32(*chainID), params)

	entry := verifycache.Entry{Accepted: checkErr == nil}
	outcome := &store.Outcome{
		ChildHash: childHash.String(),
		ChainID:   int32(*chainID),
		Accepted:  checkErr == nil,
		CheckedAt: time.Now(),
	}
	if checkErr != nil {
		var cerr *auxpow.CheckError
		if errors.As(checkErr, &cerr) {
			entry.Reason = cerr.Reason
			entry.Context = cerr.Context
			outcome.Reason = cerr.Reason
			outcome.Context = cerr.Context
		}
	}

	if cache != nil {
		if err := cache.Put(childHash, int32(*chainID), entry); err != nil {
			auxpow.Log.Warnf("verify-cache put failed: %v", err)
		}
	}
	if writer != nil {
		if err := writer.WriteOutcome(outcome, true); err != nil {
			auxpow.Log.Warnf("store outcome failed: %v", err)
		}
	}

	if checkErr != nil {
		log.Fatalf("AuxPow rejected: %v", checkErr)
	}
	log.Printf("AuxPow accepted for child hash %v, chain id %d", childHash, *chainID)
}

func reportCached(e verifycache.Entry) {
	if e.Accepted {
		log.Printf("AuxPow accepted (cached)")
		return
	}
	log.Fatalf("AuxPow rejected (cached): %s: %s", e.Reason, e.Context)
}

// reverse copies b reversed, converting a conventionally-printed
// big-endian hash back to its little-endian wire form.
func reverse(b []byte) []byte {
	r := make([]byte, len(b))
	for i, v := range b {
		r[len(b)-1-i] = v
	}
	return r
}
