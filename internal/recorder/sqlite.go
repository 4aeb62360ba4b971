package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"TokenArena/internal/model"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists round history and payout reservations to SQLite.
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
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			category    TEXT,
			challenge   TEXT,
			post_id     TEXT,
			outcome     TEXT,
			announced   INTEGER NOT NULL DEFAULT 0,
			winner_name TEXT,
			wallet      TEXT,
			score       INTEGER,
			tx_hash     TEXT,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_finished ON rounds(finished_at)`,

		`CREATE TABLE IF NOT EXISTS payouts (
			round_id     TEXT PRIMARY KEY,
			post_id      TEXT,
			recipient    TEXT NOT NULL,
			amount       TEXT NOT NULL,
			reserved_at  INTEGER NOT NULL,
			completed_at INTEGER,
			tx_hash      TEXT,
			error        TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) ReservePayout(res *PayoutReservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.Exec(`INSERT OR IGNORE INTO payouts
		(round_id, post_id, recipient, amount, reserved_at)
		VALUES (?,?,?,?,?)`,
		res.RoundID, res.PostID, res.Recipient, res.Amount, time.Now().Unix(),
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPayoutExists
	}
	return nil
}

func (r *SQLiteRecorder) CompletePayout(roundID, txHash, errText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`UPDATE payouts SET completed_at = ?, tx_hash = ?, error = ? WHERE round_id = ?`,
		time.Now().Unix(), txHash, errText, roundID,
	)
	return err
}

func (r *SQLiteRecorder) RecordRound(rd *model.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := RowFromRound(rd, time.Now())
	_, err := r.db.Exec(`INSERT INTO rounds
		(id, started_at, finished_at, category, challenge, post_id, outcome, announced,
		 winner_name, wallet, score, tx_hash, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			post_id     = excluded.post_id,
			outcome     = excluded.outcome,
			announced   = excluded.announced,
			winner_name = excluded.winner_name,
			wallet      = excluded.wallet,
			score       = excluded.score,
			tx_hash     = excluded.tx_hash,
			error       = excluded.error`,
		row.ID, row.StartedAt.Unix(), row.FinishedAt.Unix(), row.Category, row.Challenge,
		row.PostID, row.Outcome, row.Announced, row.WinnerName, row.Wallet, row.Score,
		row.TxHash, row.Err,
	)
	return err
}

// LastRounds returns up to limit rounds, newest first.
func (r *SQLiteRecorder) LastRounds(limit int) ([]RoundRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, started_at, finished_at, category, challenge, post_id,
		outcome, announced, winner_name, wallet, score, tx_hash, error
		FROM rounds ORDER BY finished_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoundRow
	for rows.Next() {
		var (
			row               RoundRow
			started, finished int64
		)
		if err := rows.Scan(&row.ID, &started, &finished, &row.Category, &row.Challenge, &row.PostID,
			&row.Outcome, &row.Announced, &row.WinnerName, &row.Wallet, &row.Score, &row.TxHash, &row.Err); err != nil {
			return nil, err
		}
		row.StartedAt = time.Unix(started, 0)
		row.FinishedAt = time.Unix(finished, 0)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}
