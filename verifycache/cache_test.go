package verifycache

import (
	"os"
	"testing"

	"github.com/blkchain/auxpow"
)

func newTestCache(t *testing.T) *Cache {
	dir, err := os.MkdirTemp("", "verifycache")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	c, err := Open(dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func Test_Cache_PutGet(t *testing.T) {
	c := newTestCache(t)

	hash := auxpow.Hash256{0x01}
	e := Entry{Accepted: true}

	if err := c.Put(hash, 7, e); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get(hash, 7)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Accepted {
		t.Error("expected Accepted true")
	}
}

func Test_Cache_MissOnUnknownKey(t *testing.T) {
	c := newTestCache(t)

	_, ok := c.Get(auxpow.Hash256{0x02}, 1)
	if ok {
		t.Fatal("expected cache miss")
	}
}

func Test_Cache_DistinguishesChainID(t *testing.T) {
	c := newTestCache(t)

	hash := auxpow.Hash256{0x03}
	if err := c.Put(hash, 1, Entry{Accepted: true}); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(hash, 2, Entry{Accepted: false, Reason: auxpow.ReasonBadMerkleRoot}); err != nil {
		t.Fatal(err)
	}

	e1, ok := c.Get(hash, 1)
	if !ok || !e1.Accepted {
		t.Fatal("expected chain 1 accepted")
	}

	e2, ok := c.Get(hash, 2)
	if !ok || e2.Accepted || e2.Reason != auxpow.ReasonBadMerkleRoot {
		t.Fatal("expected chain 2 rejected with ReasonBadMerkleRoot")
	}
}

func Test_Cache_EvictsPastHotSize(t *testing.T) {
	c := newTestCache(t) // hot size 2

	for i := byte(1); i <= 5; i++ {
		if err := c.Put(auxpow.Hash256{i}, 1, Entry{Accepted: true}); err != nil {
			t.Fatal(err)
		}
	}

	_, _, evic := c.Stats()
	if evic == 0 {
		t.Error("expected at least one eviction after exceeding hot size")
	}

	// Even evicted entries must still resolve via the durable store.
	got, ok := c.Get(auxpow.Hash256{1}, 1)
	if !ok || !got.Accepted {
		t.Fatal("expected durable fallback hit for evicted entry")
	}
}
