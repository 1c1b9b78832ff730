package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"FlipSentinel/internal/model"
)

// SQLiteRecorder persists market data and runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so report reads don't block the ingest writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			item_id        INTEGER PRIMARY KEY,
			name           TEXT NOT NULL,
			position_limit INTEGER NOT NULL DEFAULT 0,
			updated_at     INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS price_samples (
			item_id    INTEGER NOT NULL,
			timestamp  INTEGER NOT NULL,
			high_price INTEGER,
			low_price  INTEGER,
			PRIMARY KEY (item_id, timestamp)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_ts ON price_samples(timestamp)`,

		`CREATE TABLE IF NOT EXISTS volumes (
			item_id         INTEGER PRIMARY KEY,
			trade_count_24h INTEGER NOT NULL,
			updated_at      INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS evaluation_runs (
			run_id                 TEXT PRIMARY KEY,
			timestamp              INTEGER NOT NULL,
			budget                 INTEGER NOT NULL,
			candidate_count        INTEGER NOT NULL,
			total_cost             INTEGER NOT NULL,
			total_profit_after_tax INTEGER NOT NULL,
			total_roi              REAL,
			utilization            REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON evaluation_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS portfolio_selections (
			run_id           TEXT NOT NULL,
			slot             INTEGER NOT NULL,
			item_id          INTEGER NOT NULL,
			quantity         INTEGER NOT NULL,
			total_cost       INTEGER NOT NULL,
			profit_after_tax INTEGER NOT NULL,
			roi              REAL,
			PRIMARY KEY (run_id, slot)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) UpsertItems(items []model.ItemMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	return r.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO items (item_id, name, position_limit, updated_at)
			VALUES (?,?,?,?)
			ON CONFLICT(item_id) DO UPDATE SET
				name = excluded.name,
				position_limit = excluded.position_limit,
				updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, it := range items {
			if _, err := stmt.Exec(it.ItemID, it.Name, it.Limit.Raw(), now); err != nil {
				return fmt.Errorf("upsert item %d: %w", it.ItemID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) RecordSamples(samples []model.PriceSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO price_samples (item_id, timestamp, high_price, low_price)
			VALUES (?,?,?,?)
			ON CONFLICT(item_id, timestamp) DO UPDATE SET
				high_price = COALESCE(excluded.high_price, price_samples.high_price),
				low_price  = COALESCE(excluded.low_price, price_samples.low_price)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, s := range samples {
			if _, err := stmt.Exec(s.ItemID, s.Timestamp.Unix(), nullPrice(s.High), nullPrice(s.Low)); err != nil {
				return fmt.Errorf("upsert sample %d@%d: %w", s.ItemID, s.Timestamp.Unix(), err)
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) RecordVolumes(vols []model.VolumeSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	return r.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO volumes (item_id, trade_count_24h, updated_at)
			VALUES (?,?,?)
			ON CONFLICT(item_id) DO UPDATE SET
				trade_count_24h = excluded.trade_count_24h,
				updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, v := range vols {
			if _, err := stmt.Exec(v.ItemID, v.TradeCount24h, now); err != nil {
				return fmt.Errorf("upsert volume %d: %w", v.ItemID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRecorder) Items() ([]model.ItemMeta, error) {
	rows, err := r.db.Query(`SELECT item_id, name, position_limit FROM items ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []model.ItemMeta
	for rows.Next() {
		var it model.ItemMeta
		var limit int64
		if err := rows.Scan(&it.ItemID, &it.Name, &limit); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Limit = model.PositionLimitFromRaw(limit)
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) RecentSamples(itemID int, since time.Time, limit int) ([]model.PriceSample, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(`SELECT timestamp, high_price, low_price FROM price_samples
		WHERE item_id = ? AND timestamp >= ?
		ORDER BY timestamp DESC
		LIMIT ?`, itemID, since.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []model.PriceSample
	for rows.Next() {
		var ts int64
		var high, low sql.NullInt64
		if err := rows.Scan(&ts, &high, &low); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, model.PriceSample{
			ItemID:    itemID,
			Timestamp: time.Unix(ts, 0).UTC(),
			High:      fromNull(high),
			Low:       fromNull(low),
		})
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Volumes() (map[int]int64, error) {
	rows, err := r.db.Query(`SELECT item_id, trade_count_24h FROM volumes`)
	if err != nil {
		return nil, fmt.Errorf("query volumes: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int64)
	for rows.Next() {
		var id int
		var v int64
		if err := rows.Scan(&id, &v); err != nil {
			return nil, fmt.Errorf("scan volume: %w", err)
		}
		out[id] = v
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO evaluation_runs
			(run_id, timestamp, budget, candidate_count, total_cost, total_profit_after_tax, total_roi, utilization)
			VALUES (?,?,?,?,?,?,?,?)`,
			run.ID, run.At.Unix(), run.Budget, run.CandidateCount,
			run.TotalCost, run.TotalProfitAfterTax, run.TotalROI, run.Utilization,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for _, s := range run.Selections {
			if _, err := tx.Exec(`INSERT INTO portfolio_selections
				(run_id, slot, item_id, quantity, total_cost, profit_after_tax, roi)
				VALUES (?,?,?,?,?,?,?)`,
				run.ID, s.Rank, s.ItemID, s.Quantity, s.TotalCost, s.ProfitAfterTax, s.ROI,
			); err != nil {
				return fmt.Errorf("insert selection %d: %w", s.Rank, err)
			}
		}
		return nil
	})
}

// RunCount returns how many evaluation runs are stored.
func (r *SQLiteRecorder) RunCount() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM evaluation_runs`).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func (r *SQLiteRecorder) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullPrice(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func fromNull(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return model.Price(n.Int64)
}
