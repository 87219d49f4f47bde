// Package verifycache memoizes auxpow.Check outcomes keyed by
// (childHash, chainID), so a caller re-checking the same block (a
// resubmitted share, a relayed header) does not repeat the fold and
// scriptSig scan. It follows the split db/txidcache.go carries: a
// small in-memory hot cache in front of a durable goleveldb store,
// grounded on coredb/leveldb.go's ReadOnly-then-iterate usage of
// syndtr/goleveldb.
package verifycache

import (
	"encoding/binary"
	"sync"

	"github.com/blkchain/auxpow"
	"github.com/syndtr/goleveldb/leveldb"
)

// Entry is a memoized Check result.
type Entry struct {
	Accepted bool
	Reason   auxpow.Reason
	Context  string
}

// key mirrors db/txidcache.go's fixed-size lookup key, but over
// (childHash, chainID) rather than a truncated tx hash: both are
// cheap, fixed-size, and collision-resistant enough for a cache
// whose worst case on miss is simply "run Check again".
type key [36]byte

func newKey(childHash auxpow.Hash256, chainID int32) key {
	var k key
	copy(k[:32], childHash[:])
	binary.LittleEndian.PutUint32(k[32:], uint32(chainID))
	return k
}

// Cache is a hot in-memory map backed by a goleveldb store on disk,
// the same two-tier shape db/txidcache.go's txIdCache uses in memory
// alone, extended with persistence the way coredb/leveldb.go persists
// Bitcoin Core's own block index.
type Cache struct {
	mu   sync.Mutex
	hot  map[key]Entry
	size int

	db *leveldb.DB

	hits int
	miss int
	evic int
}

// Open opens (creating if necessary) a goleveldb store at path and
// wraps it with an in-memory hot cache capped at hotSize entries.
func Open(path string, hotSize int) (*Cache, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Cache{
		hot:  make(map[key]Entry, hotSize),
		size: hotSize,
		db:   db,
	}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the memoized result for (childHash, chainID), if any.
func (c *Cache) Get(childHash auxpow.Hash256, chainID int32) (Entry, bool) {
	k := newKey(childHash, chainID)

	c.mu.Lock()
	if e, ok := c.hot[k]; ok {
		c.hits++
		c.mu.Unlock()
		return e, true
	}
	c.mu.Unlock()

	raw, err := c.db.Get(k[:], nil)
	if err != nil {
		c.mu.Lock()
		c.miss++
		c.mu.Unlock()
		return Entry{}, false
	}

	e, err := decodeEntry(raw)
	if err != nil {
		return Entry{}, false
	}

	c.mu.Lock()
	c.promote(k, e)
	c.mu.Unlock()

	return e, true
}

// Put memoizes a Check result for (childHash, chainID), both in the
// hot map and durably on disk.
func (c *Cache) Put(childHash auxpow.Hash256, chainID int32, e Entry) error {
	k := newKey(childHash, chainID)

	if err := c.db.Put(k[:], encodeEntry(e), nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.promote(k, e)
	c.mu.Unlock()

	return nil
}

// promote inserts into the hot map, evicting an arbitrary entry (map
// iteration order is unspecified in Go, which is fine here, same as
// db/txidcache.go's checkSize does with "remove a random entry") when
// full. Caller holds c.mu.
func (c *Cache) promote(k key, e Entry) {
	if len(c.hot) >= c.size {
		for old := range c.hot {
			delete(c.hot, old)
			c.evic++
			break
		}
	}
	c.hot[k] = e
}

// Stats reports, for observability, the hot-tier hits, the lookups
// found in neither tier, and the hot-tier evictions.
func (c *Cache) Stats() (hits, miss, evic int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.miss, c.evic
}

// encodeEntry/decodeEntry give the LevelDb value a small fixed layout:
// 1 byte accepted flag, 1 byte reason length, reason bytes, remaining
// bytes are context.
func encodeEntry(e Entry) []byte {
	reason := []byte(e.Reason)
	buf := make([]byte, 2+len(reason)+len(e.Context))
	if e.Accepted {
		buf[0] = 1
	}
	buf[1] = byte(len(reason))
	copy(buf[2:], reason)
	copy(buf[2+len(reason):], e.Context)
	return buf
}

func decodeEntry(raw []byte) (Entry, error) {
	if len(raw) < 2 {
		return Entry{}, leveldb.ErrNotFound
	}
	rlen := int(raw[1])
	if len(raw) < 2+rlen {
		return Entry{}, leveldb.ErrNotFound
	}
	return Entry{
		Accepted: raw[0] == 1,
		Reason:   auxpow.Reason(raw[2 : 2+rlen]),
		Context:  string(raw[2+rlen:]),
	}, nil
}
