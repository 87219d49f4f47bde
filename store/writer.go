// Package store persists the outcome of every AuxPoW check to Postgres,
// the way db/postgres.go persists imported blocks: a batched
// channel-fed writer using database/sql's COPY FROM support via
// lib/pq, with an Explorer on the read side built on sqlx.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/blkchain/auxpow"
	"github.com/lib/pq"
)

// Outcome is one verification result: either a.Check succeeded (Reason
// is empty) or it failed with a specific reason.
type Outcome struct {
	ChildHash string
	ChainID   int32
	Height    int64
	Accepted  bool
	Reason    auxpow.Reason
	Context   string
	CheckedAt time.Time
}

// outcomeSync is either a data-bearing record (Outcome set, sync nil)
// or a commit signal (Outcome nil): the worker commits its current
// batch and, if sync is non-nil, reports on it whether the commit
// succeeded. Mirrors
// db/postgres.go's blockRecSync split between data records and
// sync-only commit signals.
type outcomeSync struct {
	*Outcome
	sync chan bool
}

// Writer batches Outcome records into Postgres using a single
// background worker, the same split-worker/batched-transaction shape
// db/postgres.go's pgBlockWorker/pgBlockWriter use for block records.
type Writer struct {
	ch chan *outcomeSync
	wg *sync.WaitGroup
	db *sql.DB
}

// NewWriter opens connstr, creates the outcomes table if it does not
// already exist, and starts the background batch writer.
func NewWriter(connstr string) (*Writer, error) {
	db, err := sql.Open("postgres", connstr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if err := createOutcomesTable(db); err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	ch := make(chan *outcomeSync, 64)
	wg.Add(1)

	w := &Writer{ch: ch, wg: &wg, db: db}
	go w.worker(ch, &wg)

	return w, nil
}

// Close stops accepting new outcomes and waits for the worker to drain
// and commit whatever it has buffered.
func (w *Writer) Close() {
	close(w.ch)
	w.wg.Wait()
}

// WriteOutcome enqueues o. When sync is true it blocks until the
// batch containing o has been committed: the record itself is sent
// fire-and-forget, followed by a separate commit-signal item carrying
// the channel WriteOutcome waits on, so the worker only ever reports
// completion for signal items, never for data records directly.
func (w *Writer) WriteOutcome(o *Outcome, sync bool) error {
	w.ch <- &outcomeSync{Outcome: o}
	if sync {
		done := make(chan bool)
		w.ch <- &outcomeSync{sync: done}
		if ok := <-done; !ok {
			return fmt.Errorf("store: error writing outcome for %s", o.ChildHash)
		}
	}
	return nil
}

func (w *Writer) worker(ch <-chan *outcomeSync, wg *sync.WaitGroup) {
	defer wg.Done()

	cols := []string{"child_hash", "chain_id", "height", "accepted", "reason", "context", "checked_at"}
	txn, stmt, err := beginCopy(w.db, "auxpow_outcomes", cols)
	if err != nil {
		auxpow.Log.Errorf("store: begin copy: %v", err)
		return
	}

	for os := range ch {
		if os == nil || os.Outcome == nil { // commit signal
			cerr := commitCopy(stmt, txn)
			if cerr != nil {
				auxpow.Log.Errorf("store: commit: %v", cerr)
			}
			txn, stmt, err = beginCopy(w.db, "auxpow_outcomes", cols)
			if err != nil {
				auxpow.Log.Errorf("store: begin copy: %v", err)
			}
			if os != nil && os.sync != nil {
				os.sync <- cerr == nil
			}
			continue
		}

		o := os.Outcome
		_, err = stmt.Exec(
			o.ChildHash,
			o.ChainID,
			o.Height,
			o.Accepted,
			string(o.Reason),
			o.Context,
			o.CheckedAt,
		)
		if err != nil {
			auxpow.Log.Errorf("store: exec: %v", err)
		}
	}

	if err := commitCopy(stmt, txn); err != nil {
		auxpow.Log.Errorf("store: final commit: %v", err)
	}
}

func beginCopy(db *sql.DB, table string, cols []string) (*sql.Tx, *sql.Stmt, error) {
	txn, err := db.Begin()
	if err != nil {
		return nil, nil, err
	}
	stmt, err := txn.Prepare(pq.CopyIn(table, cols...))
	if err != nil {
		return nil, nil, err
	}
	return txn, stmt, nil
}

func commitCopy(stmt *sql.Stmt, txn *sql.Tx) error {
	if _, err := stmt.Exec(); err != nil {
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}
	return txn.Commit()
}

func createOutcomesTable(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS auxpow_outcomes (
  id         BIGSERIAL PRIMARY KEY,
  child_hash TEXT NOT NULL,
  chain_id   INTEGER NOT NULL,
  height     BIGINT NOT NULL,
  accepted   BOOLEAN NOT NULL,
  reason     TEXT NOT NULL DEFAULT '',
  context    TEXT NOT NULL DEFAULT '',
  checked_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS auxpow_outcomes_child_hash_idx ON auxpow_outcomes (child_hash);
CREATE INDEX IF NOT EXISTS auxpow_outcomes_chain_id_idx ON auxpow_outcomes (chain_id);
`)
	return err
}
