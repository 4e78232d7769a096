// Package persistence records simulation runs to SQLite: one row per run,
// periodic stats snapshots, every settled exchange, and the final ledger.
package persistence

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/economy"
	"github.com/soupworks/lettermarket/internal/sim"
)

// DB wraps a SQLite connection for run recording.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL DEFAULT (datetime('now')),
		finished_at TEXT,
		end_time REAL,
		completed_words INTEGER,
		total_profit REAL
	);

	CREATE TABLE IF NOT EXISTS stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		time REAL NOT NULL,
		completed_words INTEGER NOT NULL,
		total_profit REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		time REAL NOT NULL,
		kind TEXT NOT NULL,
		seller INTEGER NOT NULL,
		seller_item INTEGER NOT NULL,
		buyer INTEGER NOT NULL,
		buyer_item INTEGER NOT NULL,
		value REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS profits (
		run_id TEXT NOT NULL,
		agent INTEGER NOT NULL,
		kind TEXT NOT NULL,
		profit REAL NOT NULL,
		PRIMARY KEY (run_id, agent)
	);

	CREATE INDEX IF NOT EXISTS idx_exchanges_run_time ON exchanges(run_id, time);
	CREATE INDEX IF NOT EXISTS idx_stats_run_time ON stats(run_id, time);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun inserts a new run row and returns its ID.
func (db *DB) BeginRun(seed int64) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec("INSERT INTO runs (id, seed) VALUES (?, ?)", id, seed)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// SaveStats appends one stats snapshot for the run.
func (db *DB) SaveStats(runID string, s sim.Stats) error {
	_, err := db.conn.Exec(
		"INSERT INTO stats (run_id, time, completed_words, total_profit) VALUES (?, ?, ?, ?)",
		runID, s.Time, s.CompletedWords, s.TotalProfit,
	)
	return err
}

// SaveExchange appends one settled exchange.
func (db *DB) SaveExchange(runID string, time float64, kind economy.ExchangeKind, e auction.Exchange) error {
	_, err := db.conn.Exec(
		`INSERT INTO exchanges (run_id, time, kind, seller, seller_item, buyer, buyer_item, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time, string(kind), e.Seller, e.SellerItem, e.Buyer, e.BuyerItem, e.Value,
	)
	return err
}

// FinishRun stamps the run with its final numbers and writes the full
// per-agent ledger in one transaction.
func (db *DB) FinishRun(runID string, s sim.Stats, profits []sim.AgentProfit) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE runs SET finished_at = datetime('now'), end_time = ?, completed_words = ?, total_profit = ?
		WHERE id = ?`,
		s.Time, s.CompletedWords, s.TotalProfit, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	for _, p := range profits {
		_, err := tx.Exec(
			"INSERT OR REPLACE INTO profits (run_id, agent, kind, profit) VALUES (?, ?, ?, ?)",
			runID, p.ID, p.Kind, p.Profit,
		)
		if err != nil {
			return fmt.Errorf("insert profit for agent %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("run recorded", "run", runID, "completed_words", s.CompletedWords, "total_profit", s.TotalProfit)
	return nil
}

// ExchangeRow is one recorded exchange.
type ExchangeRow struct {
	Time   float64 `db:"time" json:"time"`
	Kind   string  `db:"kind" json:"kind"`
	Seller int32   `db:"seller" json:"seller"`
	Buyer  int32   `db:"buyer" json:"buyer"`
	Value  float64 `db:"value" json:"value"`
}

// RecentExchanges returns the most recent N exchanges of a run.
func (db *DB) RecentExchanges(runID string, limit int) ([]ExchangeRow, error) {
	var rows []ExchangeRow
	err := db.conn.Select(&rows,
		"SELECT time, kind, seller, buyer, value FROM exchanges WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return rows, err
}

// StatsRow is one recorded stats snapshot.
type StatsRow struct {
	Time           float64 `db:"time" json:"time"`
	CompletedWords int     `db:"completed_words" json:"completed_words"`
	TotalProfit    float64 `db:"total_profit" json:"total_profit"`
}

// StatsHistory returns a run's stats snapshots in time order.
func (db *DB) StatsHistory(runID string, limit int) ([]StatsRow, error) {
	var rows []StatsRow
	err := db.conn.Select(&rows,
		"SELECT time, completed_words, total_profit FROM stats WHERE run_id = ? ORDER BY time ASC LIMIT ?",
		runID, limit,
	)
	return rows, err
}
