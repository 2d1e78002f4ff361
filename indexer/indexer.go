// Package indexer keeps a SQLite index of executed actions so callers can
// look up a signer's history or the transactions that touched an address
// without replaying blocks.
package indexer

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"
	_ "modernc.org/sqlite"

	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/events"
)

var log = logging.Logger("indexer")

// Action statuses.
const (
	StatusApplied = "applied"
	StatusFailed  = "failed"
)

// Record is one indexed action.
type Record struct {
	TxID        string
	ActionIndex int
	Type        string
	Signer      string
	BlockIndex  int64
	Status      string
	Error       string
}

// Indexer subscribes to chain events and writes them to SQLite.
type Indexer struct {
	db *sql.DB
}

// Open opens (creating if needed) the index at path and subscribes it to
// emitter. emitter may be nil for a read-only handle.
func Open(path string, emitter *events.Emitter) (*Indexer, error) {
	if path == "" {
		return nil, fmt.Errorf("empty index path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	idx := &Indexer{db: db}
	if emitter != nil {
		emitter.Subscribe(events.EventActionExecuted, idx.onActionExecuted)
		emitter.Subscribe(events.EventTxFailed, idx.onTxFailed)
	}
	return idx, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS actions (
			tx_id TEXT NOT NULL,
			action_index INTEGER NOT NULL,
			type TEXT NOT NULL,
			signer TEXT NOT NULL,
			block_index INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (tx_id, action_index)
		);`,
		`CREATE INDEX IF NOT EXISTS actions_signer ON actions(signer, block_index);`,
		`CREATE TABLE IF NOT EXISTS touched (
			tx_id TEXT NOT NULL,
			action_index INTEGER NOT NULL,
			address TEXT NOT NULL,
			PRIMARY KEY (tx_id, action_index, address)
		);`,
		`CREATE INDEX IF NOT EXISTS touched_address ON touched(address);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (idx *Indexer) Close() error { return idx.db.Close() }

// Index writes rec and the addresses it touched in one transaction.
// Re-indexing the same action replaces the earlier row.
func (idx *Indexer) Index(ctx context.Context, rec Record, touched []string) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO actions(tx_id, action_index, type, signer, block_index, status, error) VALUES(?,?,?,?,?,?,?)`,
		rec.TxID, rec.ActionIndex, rec.Type, rec.Signer, rec.BlockIndex, rec.Status, rec.Error,
	); err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	for _, addr := range touched {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO touched(tx_id, action_index, address) VALUES(?,?,?)`,
			rec.TxID, rec.ActionIndex, addr,
		); err != nil {
			return fmt.Errorf("insert touched: %w", err)
		}
	}
	return tx.Commit()
}

// ActionsBySigner returns every indexed action signed by signer, oldest
// first.
func (idx *Indexer) ActionsBySigner(ctx context.Context, signer core.Address) ([]Record, error) {
	rows, err := idx.db.QueryContext(ctx,
		`SELECT tx_id, action_index, type, signer, block_index, status, error
		 FROM actions WHERE signer = ? ORDER BY block_index, tx_id, action_index`, signer.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.TxID, &r.ActionIndex, &r.Type, &r.Signer, &r.BlockIndex, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TxsTouching returns the ids of applied transactions that wrote addr,
// ordered by block.
func (idx *Indexer) TxsTouching(ctx context.Context, addr core.Address) ([]string, error) {
	rows, err := idx.db.QueryContext(ctx,
		`SELECT t.tx_id FROM touched t
		 JOIN actions a ON a.tx_id = t.tx_id AND a.action_index = t.action_index
		 WHERE t.address = ?
		 GROUP BY t.tx_id
		 ORDER BY MIN(a.block_index), t.tx_id`, addr.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ---- event handlers ----

func recordFrom(ev events.Event, status string) Record {
	i, _ := ev.Data["action_index"].(int)
	typ, _ := ev.Data["type"].(string)
	signer, _ := ev.Data["signer"].(string)
	errMsg, _ := ev.Data["error"].(string)
	return Record{
		TxID:        ev.TxID,
		ActionIndex: i,
		Type:        typ,
		Signer:      signer,
		BlockIndex:  ev.BlockIndex,
		Status:      status,
		Error:       errMsg,
	}
}

func (idx *Indexer) onActionExecuted(ev events.Event) {
	touched, _ := ev.Data["touched"].([]string)
	if err := idx.Index(context.Background(), recordFrom(ev, StatusApplied), touched); err != nil {
		log.Errorw("index action", "tx", ev.TxID, "err", err)
	}
}

func (idx *Indexer) onTxFailed(ev events.Event) {
	if err := idx.Index(context.Background(), recordFrom(ev, StatusFailed), nil); err != nil {
		log.Errorw("index failed tx", "tx", ev.TxID, "err", err)
	}
}
