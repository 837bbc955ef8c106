package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ TransactionStore = (*SQLiteStore)(nil)
var _ PaperStore = (*SQLiteStore)(nil)

// SQLiteStore implements TransactionStore and PaperStore backed by a SQLite
// database.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS transactions (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	date     TEXT NOT NULL,
	symbol   TEXT NOT NULL,
	side     TEXT NOT NULL,
	quantity REAL NOT NULL,
	price    REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS paper_trades (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	date          TEXT NOT NULL,
	symbol        TEXT NOT NULL,
	side          TEXT NOT NULL,
	quantity      REAL NOT NULL,
	price         REAL NOT NULL,
	commission    REAL DEFAULT 0,
	balance_after REAL
);

CREATE TABLE IF NOT EXISTS paper_settings (
	key   TEXT PRIMARY KEY,
	value REAL
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// dateLayout is the canonical on-disk date format.
const dateLayout = "2006-01-02"

// ---------------------------------------------------------------------------
// TransactionStore implementation
// ---------------------------------------------------------------------------

// AddTransaction inserts a ledger entry and sets its ID.
func (s *SQLiteStore) AddTransaction(ctx context.Context, tx *domain.Transaction) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (date, symbol, side, quantity, price) VALUES (?, ?, ?, ?, ?)`,
		tx.Date.Format(dateLayout), tx.Symbol, string(tx.Side), tx.Quantity, tx.Price)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	tx.ID, err = res.LastInsertId()
	return err
}

// ListTransactions returns all ledger entries, oldest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, symbol, side, quantity, price FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var (
			tx   domain.Transaction
			date string
			side string
		)
		if err := rows.Scan(&tx.ID, &date, &tx.Symbol, &side, &tx.Quantity, &tx.Price); err != nil {
			return nil, err
		}
		tx.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing transaction date %q: %w", date, err)
		}
		tx.Side = domain.TradeSide(side)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// DeleteTransaction removes a ledger entry by ID.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// ---------------------------------------------------------------------------
// PaperStore implementation
// ---------------------------------------------------------------------------

// AddPaperTrade records one executed simulated trade and sets its ID.
func (s *SQLiteStore) AddPaperTrade(ctx context.Context, trade *domain.PaperTrade) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO paper_trades (date, symbol, side, quantity, price, commission, balance_after)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		trade.Date.Format(dateLayout), trade.Symbol, string(trade.Side),
		trade.Quantity, trade.Price, trade.Commission, trade.BalanceAfter)
	if err != nil {
		return fmt.Errorf("inserting paper trade: %w", err)
	}
	trade.ID, err = res.LastInsertId()
	return err
}

// ListPaperTrades returns all recorded simulated trades, oldest first.
func (s *SQLiteStore) ListPaperTrades(ctx context.Context) ([]domain.PaperTrade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, symbol, side, quantity, price, commission, balance_after
		 FROM paper_trades ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("listing paper trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.PaperTrade
	for rows.Next() {
		var (
			t    domain.PaperTrade
			date string
			side string
		)
		if err := rows.Scan(&t.ID, &date, &t.Symbol, &side, &t.Quantity, &t.Price, &t.Commission, &t.BalanceAfter); err != nil {
			return nil, err
		}
		t.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing paper trade date %q: %w", date, err)
		}
		t.Side = domain.TradeSide(side)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// GetPaperSetting returns a named account value, or def when the key is
// missing.
func (s *SQLiteStore) GetPaperSetting(ctx context.Context, key string, def float64) (float64, error) {
	var value float64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM paper_settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading setting %q: %w", key, err)
	}
	return value, nil
}

// SetPaperSetting upserts a named account value.
func (s *SQLiteStore) SetPaperSetting(ctx context.Context, key string, value float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO paper_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	return nil
}
