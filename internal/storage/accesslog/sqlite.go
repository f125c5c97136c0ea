package accesslog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/genesislabs/genesis-access-bot/internal/domain/model"
)

const dateLayout = "2006-01-02"

// Store journals the outcome of access checks per address and day so an
// operator can see when access lapsed. It is derived bookkeeping; the chain
// stays the source of truth.
type Store struct {
	db *sql.DB
}

type CheckRow struct {
	Address       string
	CheckDate     string
	IsActive      bool
	DaysRemaining int
	TotalPaidDays int
	TotalPaidUSDT string
	LastPaymentAt int64
	GatewayError  string
	CheckedAt     string
}

func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) init() error {
	createStmt := `CREATE TABLE IF NOT EXISTS access_checks (
        address TEXT NOT NULL,
        check_date TEXT NOT NULL,
        is_active INTEGER NOT NULL DEFAULT 0,
        days_remaining INTEGER NOT NULL DEFAULT 0,
        total_paid_days INTEGER NOT NULL DEFAULT 0,
        total_paid_usdt TEXT,
        last_payment_ts INTEGER NOT NULL DEFAULT 0,
        gateway_error TEXT,
        checked_at TEXT,
        PRIMARY KEY(address, check_date)
    )`
	if _, err := s.db.Exec(createStmt); err != nil {
		return err
	}
	return s.ensureColumns()
}

func (s *Store) ensureColumns() error {
	columns := map[string]bool{}
	rows, err := s.db.Query(`PRAGMA table_info(access_checks)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		columns[strings.ToLower(name)] = true
	}

	alterStatements := []string{}
	addColumn := func(name, definition string) {
		if !columns[name] {
			alterStatements = append(alterStatements, definition)
		}
	}

	addColumn("is_active", `ALTER TABLE access_checks ADD COLUMN is_active INTEGER NOT NULL DEFAULT 0`)
	addColumn("days_remaining", `ALTER TABLE access_checks ADD COLUMN days_remaining INTEGER NOT NULL DEFAULT 0`)
	addColumn("total_paid_days", `ALTER TABLE access_checks ADD COLUMN total_paid_days INTEGER NOT NULL DEFAULT 0`)
	addColumn("total_paid_usdt", `ALTER TABLE access_checks ADD COLUMN total_paid_usdt TEXT`)
	addColumn("last_payment_ts", `ALTER TABLE access_checks ADD COLUMN last_payment_ts INTEGER NOT NULL DEFAULT 0`)
	addColumn("gateway_error", `ALTER TABLE access_checks ADD COLUMN gateway_error TEXT`)
	addColumn("checked_at", `ALTER TABLE access_checks ADD COLUMN checked_at TEXT`)

	for _, stmt := range alterStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordCheck upserts the latest check outcome for the address's current day.
func (s *Store) RecordCheck(balance model.AccessBalance, day time.Time) error {
	addr := normalizeAddress(balance.Address)
	dateStr := day.UTC().Format(dateLayout)
	active := 0
	if balance.IsActive {
		active = 1
	}

	_, err := s.db.Exec(`INSERT INTO access_checks(address, check_date, is_active, days_remaining, total_paid_days, total_paid_usdt, last_payment_ts, gateway_error, checked_at)
    VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT(address, check_date) DO UPDATE SET
        is_active = excluded.is_active,
        days_remaining = excluded.days_remaining,
        total_paid_days = excluded.total_paid_days,
        total_paid_usdt = excluded.total_paid_usdt,
        last_payment_ts = excluded.last_payment_ts,
        gateway_error = excluded.gateway_error,
        checked_at = excluded.checked_at`,
		addr, dateStr, active, balance.DaysRemaining, balance.TotalPaidDays,
		balance.TotalPaidUSDT.String(), balance.LastPaymentAt, balance.Err,
		balance.CheckedAt.UTC().Format(time.RFC3339))
	return err
}

// LastCheck returns the journaled outcome for an address on a given day.
func (s *Store) LastCheck(address string, day time.Time) (*CheckRow, error) {
	addr := normalizeAddress(address)
	dateStr := day.UTC().Format(dateLayout)

	row := CheckRow{Address: addr, CheckDate: dateStr}
	var active int
	var usdt, gwErr, checkedAt sql.NullString
	err := s.db.QueryRow(`SELECT is_active, days_remaining, total_paid_days, total_paid_usdt, last_payment_ts, gateway_error, checked_at
        FROM access_checks WHERE address = ? AND check_date = ?`, addr, dateStr).
		Scan(&active, &row.DaysRemaining, &row.TotalPaidDays, &usdt, &row.LastPaymentAt, &gwErr, &checkedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row.IsActive = active == 1
	row.TotalPaidUSDT = usdt.String
	row.GatewayError = gwErr.String
	row.CheckedAt = checkedAt.String
	return &row, nil
}

// History returns the most recent journal rows for an address, newest first.
func (s *Store) History(address string, limit int) ([]CheckRow, error) {
	addr := normalizeAddress(address)
	if limit <= 0 {
		limit = 30
	}

	rows, err := s.db.Query(`SELECT check_date, is_active, days_remaining, total_paid_days, total_paid_usdt, last_payment_ts, gateway_error, checked_at
        FROM access_checks WHERE address = ? ORDER BY check_date DESC LIMIT ?`, addr, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []CheckRow
	for rows.Next() {
		row := CheckRow{Address: addr}
		var active int
		var usdt, gwErr, checkedAt sql.NullString
		if err := rows.Scan(&row.CheckDate, &active, &row.DaysRemaining, &row.TotalPaidDays, &usdt, &row.LastPaymentAt, &gwErr, &checkedAt); err != nil {
			return nil, err
		}
		row.IsActive = active == 1
		row.TotalPaidUSDT = usdt.String
		row.GatewayError = gwErr.String
		row.CheckedAt = checkedAt.String
		history = append(history, row)
	}
	return history, rows.Err()
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
