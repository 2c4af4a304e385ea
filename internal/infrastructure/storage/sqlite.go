package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/trade_checklist/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// Writers must not interleave; reads are cheap enough to share one conn.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS rule_records (
			trader TEXT NOT NULL,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			enabled BOOLEAN NOT NULL DEFAULT 1,
			conditions TEXT NOT NULL DEFAULT '{}',
			PRIMARY KEY (trader, id)
		);`,
		`CREATE TABLE IF NOT EXISTS plans (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			trader TEXT NOT NULL,
			date TEXT NOT NULL,
			payload TEXT NOT NULL,
			submitted_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_plans_trader_date ON plans(trader, date);`,
		`CREATE TABLE IF NOT EXISTS journal_entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			trader TEXT NOT NULL,
			date TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_trader_date ON journal_entries(trader, date);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// RuleRecordRepository Implementation

func (s *SQLiteStore) ListRuleRecords(ctx context.Context, trader string) ([]*domain.RuleRecord, error) {
	query := `SELECT id, name, description, category, enabled, conditions FROM rule_records WHERE trader = ? ORDER BY position`
	rows, err := s.db.QueryContext(ctx, query, trader)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.RuleRecord
	for rows.Next() {
		var r domain.RuleRecord
		var category, conditions string
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &category, &r.Enabled, &conditions); err != nil {
			return nil, err
		}
		r.Category = domain.RuleCategory(category)
		r.Conditions, err = decodeConditions(conditions)
		if err != nil {
			return nil, fmt.Errorf("rule record %s: %w", r.ID, err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) ReplaceRuleRecords(ctx context.Context, trader string, records []*domain.RuleRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := countRuleRecords(ctx, tx, trader)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNoRuleRecords
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rule_records WHERE trader = ?`, trader); err != nil {
			return err
		}
		return insertRuleRecords(ctx, tx, trader, records)
	})
}

func (s *SQLiteStore) SeedRuleRecords(ctx context.Context, trader string, records []*domain.RuleRecord) (bool, error) {
	var seeded bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := countRuleRecords(ctx, tx, trader)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		seeded = true
		return insertRuleRecords(ctx, tx, trader, records)
	})
	return seeded, err
}

func countRuleRecords(ctx context.Context, tx *sql.Tx, trader string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rule_records WHERE trader = ?`, trader).Scan(&n)
	return n, err
}

func insertRuleRecords(ctx context.Context, tx *sql.Tx, trader string, records []*domain.RuleRecord) error {
	query := `INSERT INTO rule_records (trader, id, position, name, description, category, enabled, conditions)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for i, r := range records {
		conditions := r.Conditions
		if conditions == nil {
			conditions = map[string]any{}
		}
		payload, err := json.Marshal(conditions)
		if err != nil {
			return fmt.Errorf("encode conditions for %s: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			trader, r.ID, i, r.Name, r.Description, string(r.Category), r.Enabled, string(payload)); err != nil {
			return err
		}
	}
	return nil
}

// decodeConditions keeps numbers as json.Number so unknown fields are
// written back exactly as read.
func decodeConditions(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// PlanRepository Implementation

func (s *SQLiteStore) SavePlan(ctx context.Context, plan *domain.PreTradePlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	date := domain.DateKey(plan.Date)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO plans (id, trader, date, payload, submitted_at) VALUES (?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, query, plan.ID, plan.Trader, date, string(payload), plan.SubmittedAt.UTC()); err != nil {
			return err
		}
		prune := `DELETE FROM plans WHERE trader = ? AND date = ? AND seq NOT IN (
					SELECT seq FROM plans WHERE trader = ? AND date = ? ORDER BY seq DESC LIMIT ?)`
		_, err := tx.ExecContext(ctx, prune, plan.Trader, date, plan.Trader, date, domain.PlanHistoryLimit)
		return err
	})
}

func (s *SQLiteStore) ListPlans(ctx context.Context, trader string, date time.Time) ([]*domain.PreTradePlan, error) {
	query := `SELECT payload FROM plans WHERE trader = ? AND date = ? ORDER BY seq DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, trader, domain.DateKey(date), domain.PlanHistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*domain.PreTradePlan
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var p domain.PreTradePlan
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("decode plan: %w", err)
		}
		plans = append(plans, &p)
	}
	return plans, rows.Err()
}

// JournalRepository Implementation

func (s *SQLiteStore) SaveJournalEntry(ctx context.Context, entry *domain.TradeJournalEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	query := `INSERT INTO journal_entries (id, trader, date, payload, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, entry.ID, entry.Trader, domain.DateKey(entry.Date), string(payload), entry.CreatedAt.UTC())
	return err
}

func (s *SQLiteStore) DeleteJournalEntry(ctx context.Context, trader, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE trader = ? AND id = ?`, trader, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("journal entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListJournalEntries(ctx context.Context, trader string, date time.Time) ([]*domain.TradeJournalEntry, error) {
	query := `SELECT payload FROM journal_entries WHERE trader = ? AND date = ? ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, query, trader, domain.DateKey(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.TradeJournalEntry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var e domain.TradeJournalEntry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("decode journal entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
