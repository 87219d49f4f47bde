package store

import (
	"github.com/blkchain/auxpow"
	"github.com/jmoiron/sqlx"
)

func outcomeReason(s string) auxpow.Reason { return auxpow.Reason(s) }

// Explorer answers read-only queries over the outcomes table, the way
// db/explore.go's Explorer answers read-only queries over blocks/txs.
type Explorer struct {
	db *sqlx.DB
}

type Config struct {
	ConnectString string
}

func NewExplorer(cfg Config) (*Explorer, error) {
	conn, err := sqlx.Connect("postgres", cfg.ConnectString)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}
	return &Explorer{db: conn}, nil
}

// outcomeRow mirrors the auxpow_outcomes columns for sqlx scanning.
type outcomeRow struct {
	ChildHash string `db:"child_hash"`
	ChainID   int32  `db:"chain_id"`
	Height    int64  `db:"height"`
	Accepted  bool   `db:"accepted"`
	Reason    string `db:"reason"`
	Context   string `db:"context"`
}

// SelectOutcomesByChildHash returns up to limit recorded outcomes for a
// given child block hash, most recent first.
func (e *Explorer) SelectOutcomesByChildHash(childHash string, limit int) ([]Outcome, error) {
	stmt := `SELECT child_hash, chain_id, height, accepted, reason, context
              FROM auxpow_outcomes
             WHERE child_hash = $1
             ORDER BY id DESC
             LIMIT $2`

	var rows []outcomeRow
	if err := e.db.Select(&rows, stmt, childHash, limit); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(rows))
	for i, r := range rows {
		outcomes[i] = Outcome{
			ChildHash: r.ChildHash,
			ChainID:   r.ChainID,
			Height:    r.Height,
			Accepted:  r.Accepted,
			Reason:    outcomeReason(r.Reason),
			Context:   r.Context,
		}
	}
	return outcomes, nil
}

// SelectRejectCounts returns, for a chain id, how many times each
// rejection Reason has been recorded. Useful for spotting a
// misbehaving or misconfigured miner on that chain.
func (e *Explorer) SelectRejectCounts(chainID int32) (map[string]int64, error) {
	stmt := `SELECT reason, COUNT(*) AS n
               FROM auxpow_outcomes
              WHERE chain_id = $1 AND NOT accepted
              GROUP BY reason`

	rows, err := e.db.Query(stmt, chainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var reason string
		var n int64
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		counts[reason] = n
	}
	return counts, rows.Err()
}
